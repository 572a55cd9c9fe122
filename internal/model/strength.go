package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedStrength is matched by every *StrengthError.
var ErrMalformedStrength = errors.New("malformed strength")

// StrengthError reports a strength token that is not "AxB" with integer A and B.
type StrengthError struct {
	Raw string
}

func (e *StrengthError) Error() string {
	return fmt.Sprintf("malformed strength %q: want <home>x<away>", e.Raw)
}

func (e *StrengthError) Unwrap() error { return ErrMalformedStrength }

// ParseStrength converts "AxB" into the home-minus-away skater differential.
func ParseStrength(s string) (int, error) {
	home, away, ok := strings.Cut(s, "x")
	if !ok {
		return 0, &StrengthError{Raw: s}
	}
	h, err := strconv.Atoi(home)
	if err != nil {
		return 0, &StrengthError{Raw: s}
	}
	a, err := strconv.Atoi(away)
	if err != nil {
		return 0, &StrengthError{Raw: s}
	}
	return h - a, nil
}
