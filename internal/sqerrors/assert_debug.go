//go:build sequitur_debug

package sqerrors

import "fmt"

// Assert panics with ErrInvariantViolation, wrapped with the formatted
// message, if cond is false. Built only when the sequitur_debug tag is set;
// see assert_release.go for the no-op variant.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(New(ErrInvariantViolation, fmt.Sprintf(format, args...)))
}
