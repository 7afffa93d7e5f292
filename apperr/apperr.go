package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the API distinguishes. Callers
// match with errors.Is; lower layers attach detail with errors.Join or %w.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPermission  = errors.New("permission denied")
	ErrStorage     = errors.New("storage operation failed")
	ErrConsistency = errors.New("cascade partially applied")
	ErrIngestion   = errors.New("ingestion failed")
)

// ConsistencyError reports a cascade that renamed or deleted the parent
// object but left some segment objects behind. It is a degraded success,
// not a total failure: the relational row and the parent object are in
// their final state, the listed keys are not.
type ConsistencyError struct {
	Op          string
	RecordingID uint
	StaleKeys   []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s cascade for recording %d left %d stale object(s)", e.Op, e.RecordingID, len(e.StaleKeys))
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Storage(op string, err error) error {
	return errors.Join(ErrStorage, fmt.Errorf("%s: %w", op, err))
}
