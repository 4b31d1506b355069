package console

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// SurveyConfirmer asks the operator on the terminal.
type SurveyConfirmer struct {
	ask    func(prompt string) (bool, error)
	logger *zap.Logger
}

// NewSurveyConfirmer creates an interactive confirmer.
func NewSurveyConfirmer(logger *zap.Logger) *SurveyConfirmer {
	return &SurveyConfirmer{ask: BoolSelect, logger: logger}
}

// Confirm returns false when the prompt cannot be shown or is interrupted.
func (c *SurveyConfirmer) Confirm(q domain.Question, prompt string) bool {
	answer, err := c.ask(prompt)
	if err != nil {
		c.logger.Warn("confirmation failed, treating as no",
			zap.String("question", string(q)),
			zap.Error(err))
		return false
	}
	c.logger.Info("operator answered", zap.String("question", string(q)), zap.Bool("answer", answer))
	return answer
}

// PresetConfirmer answers some questions from flags and defers the rest.
type PresetConfirmer struct {
	answers  map[domain.Question]bool
	fallback domain.Confirmer
}

// Presets are the unattended answers selected on the command line.
type Presets struct {
	AssumeYes bool // --yes
	Kill      bool // --kill
	NoBackup  bool // --no-backup
}

// NewPresetConfirmer builds a confirmer from presets. fallback may be nil,
// in which case unanswered questions are declined.
func NewPresetConfirmer(p Presets, fallback domain.Confirmer) *PresetConfirmer {
	answers := make(map[domain.Question]bool)
	if p.AssumeYes {
		answers[domain.QuestionTerminate] = true
		answers[domain.QuestionContinueUnverified] = true
		answers[domain.QuestionBackup] = true
	}
	if p.Kill {
		answers[domain.QuestionTerminate] = true
	}
	if p.NoBackup {
		answers[domain.QuestionBackup] = false
	}
	return &PresetConfirmer{answers: answers, fallback: fallback}
}

func (c *PresetConfirmer) Confirm(q domain.Question, prompt string) bool {
	if answer, ok := c.answers[q]; ok {
		return answer
	}
	if c.fallback == nil {
		return false
	}
	return c.fallback.Confirm(q, prompt)
}

var (
	_ domain.Confirmer = (*SurveyConfirmer)(nil)
	_ domain.Confirmer = (*PresetConfirmer)(nil)
)
