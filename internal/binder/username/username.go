// Package username picks a free local username for a provider identity.
package username

import (
	"errors"
	"fmt"
	"strconv"

	dErrors "casbinder/pkg/domain-errors"
)

// DefaultMaxAttempts is the attempt budget used when none is configured.
const DefaultMaxAttempts = 1000

// ErrExhausted matches every *ExhaustedError via errors.Is.
var ErrExhausted = errors.New("username allocation exhausted")

// ExhaustedError reports that no candidate in the budget was free.
type ExhaustedError struct {
	Desired     string
	MaxAttempts int
}

func (e *ExhaustedError) Error() string {
	if e.MaxAttempts <= 2 {
		return fmt.Sprintf("username %s is taken", e.Desired)
	}
	if e.MaxAttempts == 3 {
		return fmt.Sprintf("usernames %s and %s_2 are taken", e.Desired, e.Desired)
	}
	return fmt.Sprintf("usernames %s and %s_2-%s_%d are taken",
		e.Desired, e.Desired, e.Desired, e.MaxAttempts-1)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// IsTakenFunc reports whether a candidate username is already in use.
type IsTakenFunc func(candidate string) (bool, error)

// Allocate returns desired if it is free, otherwise the first free
// desired_k for k in 2..maxAttempts-1 in ascending order. Predicate errors
// abort the search and are returned unchanged.
func Allocate(desired string, isTaken IsTakenFunc, maxAttempts int) (string, error) {
	if desired == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "desired username is required")
	}

	for _, candidate := range Candidates(desired, maxAttempts) {
		taken, err := isTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", &ExhaustedError{Desired: desired, MaxAttempts: maxAttempts}
}

// Candidates lists the names Allocate tries, in order.
func Candidates(desired string, maxAttempts int) []string {
	out := []string{desired}
	for k := 2; k < maxAttempts; k++ {
		out = append(out, desired+"_"+strconv.Itoa(k))
	}
	return out
}
