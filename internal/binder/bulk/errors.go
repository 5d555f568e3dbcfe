package bulk

import (
	"fmt"
	"strings"
)

// DisplayCap is how many provider errors are shown before the rest are
// collapsed into a count.
const DisplayCap = 7

// ErrorCodeNoSuchUser is the provider code for an email it does not know.
const ErrorCodeNoSuchUser = "no_such_user"

// ProviderError is one row of a failed batch lookup, as the provider sends it.
type ProviderError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
	Email   string `json:"email,omitempty"`
}

func (e ProviderError) String() string {
	if e.Code == ErrorCodeNoSuchUser {
		return fmt.Sprintf("%s - %s", e.Email, e.Message)
	}
	return e.Message
}

// BatchError aborts a batch before any assignment. Messages are ready for
// display, in provider order.
type BatchError struct {
	Messages []string
}

// NewBatchError summarises errs with DisplayCap.
func NewBatchError(errs []ProviderError) *BatchError {
	return &BatchError{Messages: SummarizeErrors(errs, DisplayCap)}
}

func (e *BatchError) Error() string {
	return "universal id lookup failed: " + strings.Join(e.Messages, "; ")
}

// SummarizeErrors renders at most max errors, followed by a single
// "N other errors occurred" line when some were left out.
func SummarizeErrors(errs []ProviderError, max int) []string {
	if max < 0 {
		max = 0
	}
	shown := errs
	if len(shown) > max {
		shown = shown[:max]
	}
	messages := make([]string, 0, len(shown)+1)
	for _, e := range shown {
		messages = append(messages, e.String())
	}
	if rest := len(errs) - len(shown); rest > 0 {
		messages = append(messages, fmt.Sprintf("%d other errors occurred", rest))
	}
	return messages
}
