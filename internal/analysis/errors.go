package analysis

import "errors"

// Input errors, rejected before any upstream call.
var (
	ErrEmptyCode     = errors.New("no code provided for analysis")
	ErrEmptyQuestion = errors.New("no question provided")
)

// IsInputError reports whether err is a request-validation failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyCode) || errors.Is(err, ErrEmptyQuestion)
}
