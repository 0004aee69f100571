//go:build !sequitur_debug

package sqerrors

// Assert is a no-op in release builds. See assert_debug.go for the build
// that actually checks cond.
func Assert(cond bool, format string, args ...any) {}
