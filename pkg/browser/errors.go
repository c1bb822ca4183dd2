package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ResolutionError reports a selector, frame or element that matched nothing.
type ResolutionError struct {
	Kind    string
	Locator string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Locator, e.Err)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Locator)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports an operation that ran out of time.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
	}
	return e.Op + " timed out"
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// classify turns a driver error into a TimeoutError where it is one and
// otherwise prefixes it with op.
func classify(op string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if isDriverTimeout(err) {
		return &TimeoutError{Op: op, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func isDriverTimeout(err error) bool {
	if errors.Is(err, playwright.ErrTimeout) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") && strings.Contains(msg, "exceeded")
}

func isClosed(err error) bool {
	return errors.Is(err, playwright.ErrTargetClosed)
}

func millis(d time.Duration) *float64 {
	ms := float64(d.Milliseconds())
	return &ms
}
