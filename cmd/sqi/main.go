/*
Sqi starts an interactive Sequitur session.

It reads characters one at a time, either from stdin or interactively via
readline, and prints the induced grammar and compression stats as it grows.

Usage:

	sqi [flags]

The flags are:

	-v, --version
		Give the current version of Sequitur and then exit.

	-d, --direct
		Force reading directly from stdin instead of going through GNU
		readline based routines for reading input even if launched in a tty.

	-w, --width COLUMNS
		Wrap grammar listings to the given column width. Defaults to 80.

	-c, --compare
		Run two independent engines side by side on alternating halves of
		the input, to demonstrate that engines never share state.

Once a session has started, type characters followed by Enter to feed them
to the engine one line at a time. Type "QUIT" on its own line to exit.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/reader"
	"github.com/dekarrin/sequitur/internal/sqreport"
	"github.com/dekarrin/sequitur/internal/version"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitReadError indicates an unsuccessful program execution due to a
	// problem reading input.
	ExitReadError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the reader.
	ExitInitError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	forceDirect = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	width       = pflag.IntP("width", "w", 80, "Wrap grammar listings to this column width")
	compare     = pflag.BoolP("compare", "c", false, "Run two independent engines side by side to demonstrate non-interference")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	src, closeFn, err := openSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer closeFn()

	if *compare {
		if err := runCompare(src); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitReadError
		}
		return
	}

	if err := run(src); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitReadError
		return
	}
}

func openSource() (reader.TokenSource, func() error, error) {
	if !*forceDirect && isatty.IsTerminal(os.Stdin.Fd()) {
		ir, err := reader.NewInteractive("sqi> ")
		if err != nil {
			return nil, nil, err
		}
		return ir, ir.Close, nil
	}

	sr := reader.New(os.Stdin)
	return sr, sr.Close, nil
}

func run(src reader.TokenSource) error {
	eng := sequitur.NewRunes()

	for {
		r, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		eng.Push(r)
	}

	fmt.Println(sqreport.Table(eng.Stats()))
	return nil
}

func runCompare(src reader.TokenSource) error {
	a := sequitur.NewRunes()
	b := sequitur.NewRunes()

	turn := 0
	for {
		r, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		if turn%2 == 0 {
			a.Push(r)
		} else {
			b.Push(r)
		}
		turn++
	}

	fmt.Println("Engine A:")
	fmt.Println(sqreport.Table(a.Stats()))
	fmt.Println("Engine B:")
	fmt.Println(sqreport.Table(b.Stats()))
	return nil
}
