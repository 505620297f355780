package ensemble

import "strings"

// FailurePrefix starts the text of every failed attempt. Any attempt whose
// text carries it is treated as failed.
const FailurePrefix = "Error:"

// Attempt is the outcome of running one menu entry against one page.
type Attempt struct {
	Method Method
	Text   string
	Err    error
}

// NewAttempt records a successful recognition, trimming surrounding whitespace.
func NewAttempt(method Method, text string) Attempt {
	return Attempt{Method: method, Text: strings.TrimSpace(text)}
}

// NewFailedAttempt records an engine failure as data.
func NewFailedAttempt(method Method, err error) Attempt {
	return Attempt{
		Method: method,
		Text:   FailurePrefix + " " + err.Error(),
		Err:    err,
	}
}

// IsFailure reports whether the attempt failed.
func (a Attempt) IsFailure() bool {
	return a.Err != nil || strings.HasPrefix(a.Text, FailurePrefix)
}

// Valid reports whether the attempt is eligible for scoring.
func (a Attempt) Valid() bool {
	return !a.IsFailure() && strings.TrimSpace(a.Text) != ""
}

// CountValid returns the number of attempts eligible for scoring.
func CountValid(attempts []Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Valid() {
			n++
		}
	}
	return n
}
