package usecase

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eliteGoblin/wsreset/internal/domain"
)

const (
	sessionKeyPrefix = "sk-ws-"
	minSecretLen     = 20
	maskKeep         = 8
	invalidMask      = "***INVALID***"
)

var credentialHints = []string{"api", "key", "token", "auth", "secret", "codeium", "windsurf"}

// Inspector looks for credential-like entries in the storage file.
type Inspector struct {
	store  domain.ConfigStore
	fs     domain.FileSystemManager
	logger *zap.Logger
}

// NewInspector creates an inspector.
func NewInspector(store domain.ConfigStore, fs domain.FileSystemManager, logger *zap.Logger) *Inspector {
	return &Inspector{store: store, fs: fs, logger: logger}
}

// Scan returns masked findings from the storage file under root, sorted by key.
// A missing storage file yields no findings.
func (i *Inspector) Scan(root string) ([]domain.Finding, error) {
	path := domain.StorageFilePath(root)
	exists, _, err := i.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	doc, err := i.store.Load(path)
	if err != nil && !errors.Is(err, domain.ErrConfigParseInvalid) {
		return nil, err
	}
	findings := FindCredentials(doc)
	i.logger.Info("storage scanned", zap.String("path", path), zap.Int("findings", len(findings)))
	return findings, nil
}

// FindCredentials applies the credential heuristics to a storage document.
// Raw values never leave this function.
func FindCredentials(doc map[string]any) []domain.Finding {
	var findings []domain.Finding
	for k, v := range doc {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var reason string
		switch {
		case strings.HasPrefix(s, sessionKeyPrefix):
			reason = "session key prefix " + sessionKeyPrefix
		case utf8.RuneCountInString(s) > minSecretLen && hintedKey(k):
			reason = "credential-like key name"
		default:
			continue
		}
		findings = append(findings, domain.Finding{
			Key:    k,
			Masked: MaskValue(s),
			Length: utf8.RuneCountInString(s),
			Reason: reason,
		})
	}
	sort.Slice(findings, func(a, b int) bool { return findings[a].Key < findings[b].Key })
	return findings
}

func hintedKey(key string) bool {
	lower := strings.ToLower(key)
	for _, h := range credentialHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// MaskValue keeps the first and last eight characters and stars the rest.
// Lengths are counted in runes.
func MaskValue(s string) string {
	r := []rune(s)
	if len(r) < 2*maskKeep {
		return invalidMask
	}
	return string(r[:maskKeep]) + strings.Repeat("*", len(r)-2*maskKeep) + string(r[len(r)-maskKeep:])
}
