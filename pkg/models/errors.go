package models

import "errors"

// Sentinel errors for conditions simple enough not to need a carried
// payload. Richer, caller-actionable failures live in pkg/apierr.
var (
	ErrUserNotFound           = errors.New("models: user not found")
	ErrProjectNotFound        = errors.New("models: project not found")
	ErrDeletionRecordNotFound = errors.New("models: deletion record not found")
)
