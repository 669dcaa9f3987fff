package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule loading.
var (
	// ErrRuleSourceRead indicates a rule source that exists but cannot be read.
	ErrRuleSourceRead = errors.New("rule source unreadable")
	// ErrCorruptRuleSource indicates a rule source whose content cannot be decoded as UTF-8 text.
	ErrCorruptRuleSource = errors.New("rule source is not valid UTF-8 text")
)

// RuleSourceReadError reports a rule source that exists but could not be read or decoded.
type RuleSourceReadError struct {
	Path string
	Err  error
}

func (readError *RuleSourceReadError) Error() string {
	return fmt.Sprintf("reading rule source %s: %v", readError.Path, readError.Err)
}

// Unwrap exposes both ErrRuleSourceRead and the underlying cause to errors.Is and errors.As.
func (readError *RuleSourceReadError) Unwrap() []error {
	return []error{ErrRuleSourceRead, readError.Err}
}
