package domain

import "errors"

// Fatal reset errors. Callers wrap them with context and match with errors.Is.
var (
	ErrUnsupportedPlatform      = errors.New("unsupported platform")
	ErrBaseDirectoryUnavailable = errors.New("base directory unavailable")
	ErrBackupFailed             = errors.New("backup failed")
	ErrConfigWriteFailed        = errors.New("config write failed")
	ErrProcessesRunning         = errors.New("target application is still running")
	ErrDeclined                 = errors.New("operation declined by operator")
	ErrResetInProgress          = errors.New("another reset is in progress")
	ErrConfigEncoding           = errors.New("storage file is not valid UTF-8")
)

// ErrConfigParseInvalid marks a storage file that is not a JSON object.
// It is recoverable: the document is treated as empty.
var ErrConfigParseInvalid = errors.New("storage file is not a valid JSON object")
