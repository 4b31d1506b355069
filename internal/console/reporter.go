package console

import (
	"fmt"
	"io"
	"time"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

// Reporter prints reset progress with delightful and writes the final
// summary to out.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing the summary to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) OnStep(state domain.ResetState, msg string) {
	Step("%s", msg)
	Debug("state: %s", state)
}

func (r *Reporter) OnWarning(w domain.Warning) {
	if w.Path != "" {
		Warning("%s (%s)", w.Message, w.Path)
		return
	}
	Warning("%s", w.Message)
}

func (r *Reporter) OnComplete(result *domain.ResetResult) {
	// The abort reason is printed once, by the command that ran the reset.
	if !result.Succeeded() {
		Debug("reset ended in state %s", result.State)
		return
	}
	Title("Reset complete")
	WriteSummary(r.out, result)
	Success("Restart Windsurf and sign in with a new account.")
}

// WriteSummary prints statistics, identifiers and the backup location.
func WriteSummary(w io.Writer, result *domain.ResetResult) {
	s := result.Stats
	fmt.Fprintf(w, "Files deleted:       %d\n", s.FilesDeleted)
	fmt.Fprintf(w, "Directories deleted: %d\n", s.DirsDeleted)
	fmt.Fprintf(w, "Total deleted:       %d\n", s.TotalDeleted)
	fmt.Fprintf(w, "Processes closed:    %d\n", s.ProcessesClosed)
	fmt.Fprintf(w, "Warnings:            %d\n", s.Warnings)
	fmt.Fprintf(w, "Errors:              %d\n", s.Errors)
	fmt.Fprintf(w, "Duration:            %s\n", s.Duration.Round(10*time.Millisecond))

	if result.BackupPath != "" {
		fmt.Fprintf(w, "Backup:              %s\n", result.BackupPath)
	} else {
		fmt.Fprintf(w, "Backup:              none\n")
	}
	if len(result.RemovedKeys) > 0 {
		fmt.Fprintf(w, "Removed keys:        %d\n", len(result.RemovedKeys))
	}

	if result.Identifiers != nil {
		fmt.Fprintln(w)
		WriteIdentifiers(w, result.Identifiers.AsMap())
	}
}

// WriteIdentifiers prints identifier keys in display order.
// Missing keys print as "not found".
func WriteIdentifiers(w io.Writer, ids map[string]string) {
	for _, k := range domain.IdentifierKeys {
		v, ok := ids[k]
		if !ok || v == "" {
			v = "not found"
		}
		fmt.Fprintf(w, "%-24s %s\n", k+":", v)
	}
}

var _ domain.Reporter = (*Reporter)(nil)
