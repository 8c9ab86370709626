package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrRateLimited matches any error that ended in an exhausted rate-limit retry budget
var ErrRateLimited = errors.New("rate limited")

// RateLimitError is returned once every retry attempt hit a rate limit
type RateLimitError struct {
	Attempts int
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRateLimited) true
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

var statusTooManyRequests = regexp.MustCompile(`\b429\b`)

// IsRateLimit reports whether err signals provider throttling.
// Providers disagree on error types, so the message is inspected for the
// markers they all share: HTTP 429, quota wording, or gRPC RESOURCE_EXHAUSTED.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	s := strings.ToLower(err.Error())
	return statusTooManyRequests.MatchString(s) ||
		strings.Contains(s, "quota") ||
		strings.Contains(s, "resource exhausted") ||
		strings.Contains(s, "resource_exhausted")
}
