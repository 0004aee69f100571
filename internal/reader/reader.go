// Package reader supplies token sources for feeding a sequitur.Engine[rune]
// from either a plain stream or an interactive terminal, mirroring the
// split between DirectCommandReader and InteractiveCommandReader that the
// command input layer this is modeled on uses.
package reader

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"golang.org/x/text/unicode/norm"
)

// TokenSource yields one rune at a time. Next returns false once the
// source is exhausted or a line-oriented source has produced an end of
// line with nothing more to give without blocking; callers keep calling
// Next until it returns false together with a nil error to detect true
// end of input, or a non-nil error to detect a read failure.
type TokenSource interface {
	Next() (r rune, ok bool, err error)
	Close() error
}

// StreamReader reads runes from an io.Reader, normalizing each to NFC as
// it is produced so that combining-character sequences never cross a
// digram boundary differently than their precomposed equivalent would.
type StreamReader struct {
	r   *bufio.Reader
	buf []rune
	pos int
}

// New wraps r as a StreamReader. r is buffered internally; callers should
// not wrap it in their own bufio.Reader.
func New(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r)}
}

// Next returns the next normalized rune from the stream.
func (s *StreamReader) Next() (rune, bool, error) {
	for s.pos >= len(s.buf) {
		raw, _, err := s.r.ReadRune()
		if err != nil {
			if err == io.EOF {
				return 0, false, nil
			}
			return 0, false, err
		}
		s.buf = []rune(norm.NFC.String(string(raw)))
		s.pos = 0
		if len(s.buf) == 0 {
			continue
		}
	}

	r := s.buf[s.pos]
	s.pos++
	return r, true, nil
}

// Close is a no-op for StreamReader; it exists so StreamReader satisfies
// TokenSource alongside InteractiveReader, which does hold resources that
// need releasing.
func (s *StreamReader) Close() error { return nil }

// InteractiveReader reads runes from an interactive terminal a line at a
// time via readline, normalizing each line to NFC before handing out its
// runes. It must have Close called on it before disposal.
type InteractiveReader struct {
	rl   *readline.Instance
	buf  []rune
	pos  int
	done bool
}

// NewInteractive starts a readline session with the given prompt.
func NewInteractive(prompt string) (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("create readline session: %w", err)
	}
	return &InteractiveReader{rl: rl}, nil
}

// Next returns the next normalized rune, reading a new line from the
// terminal whenever the current one is exhausted. A blank line yields a
// single '\n' token so tokenization stays lossless across line breaks.
func (ir *InteractiveReader) Next() (rune, bool, error) {
	for ir.pos >= len(ir.buf) {
		if ir.done {
			return 0, false, nil
		}

		line, err := ir.rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				ir.done = true
				return 0, false, nil
			}
			return 0, false, err
		}

		ir.buf = []rune(norm.NFC.String(line + "\n"))
		ir.pos = 0
	}

	r := ir.buf[ir.pos]
	ir.pos++
	return r, true, nil
}

// Close tears down the underlying readline session.
func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}
