package imagery

import (
	"errors"
	"fmt"
)

// ErrImageryUnavailable is matched by errors.Is for every *ImageryUnavailableError.
var ErrImageryUnavailable = errors.New("imagery unavailable")

// ValidationError reports a bad request input. Message is returned to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ImageryUnavailableError is returned when the remote collection has no scenes for the
// requested region and window.
type ImageryUnavailableError struct {
	Feature Feature
}

func (e *ImageryUnavailableError) Error() string {
	return fmt.Sprintf("No %s data available for the given ROI and date range.", e.Feature)
}

func (e *ImageryUnavailableError) Is(target error) bool {
	return target == ErrImageryUnavailable
}

// UpstreamError wraps a failure of the imagery query service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("imagery service %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(op string, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
