package term

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned by ReadLine when the operator pressed Ctrl-C
var ErrInterrupted = goerr.New("input interrupted")

// LineReader reads one line of operator input
type LineReader interface {
	// ReadLine shows prompt and returns the line without trailing newline.
	// It returns io.EOF when input is closed and ErrInterrupted on Ctrl-C.
	ReadLine(prompt string) (string, error)
}

// NewLineReader returns a readline based reader when stdin is a terminal and
// a plain line scanner otherwise (pipes, redirected files).
func NewLineReader(in *os.File, out io.Writer) (LineReader, func() error, error) {
	if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
		return NewScanReader(in, out), func() error { return nil }, nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize readline")
	}

	return &readlineReader{rl: rl}, rl.Close, nil
}

type readlineReader struct {
	rl *readline.Instance
}

func (x *readlineReader) ReadLine(prompt string) (string, error) {
	x.rl.SetPrompt(prompt)
	line, err := x.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

// ScanReader reads lines from any io.Reader
type ScanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScanReader creates a LineReader reading lines from in and writing prompts to out
func NewScanReader(in io.Reader, out io.Writer) *ScanReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &ScanReader{scanner: scanner, out: out}
}

func (x *ScanReader) ReadLine(prompt string) (string, error) {
	if prompt != "" && x.out != nil {
		fmt.Fprint(x.out, prompt)
	}

	if !x.scanner.Scan() {
		if err := x.scanner.Err(); err != nil {
			return "", goerr.Wrap(err, "failed to read input")
		}
		return "", io.EOF
	}
	return x.scanner.Text(), nil
}
