package term

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	warnColor       = color.New(color.FgYellow)
	severeColor     = color.New(color.FgRed)
	errorColor      = color.New(color.FgRed, color.Bold)
	assistantColor  = color.New(color.FgBlue, color.Bold)
	toolColor       = color.New(color.FgMagenta, color.Bold)
	toolResultColor = color.New(color.FgHiBlack)
	thinkColor      = color.New(color.FgHiBlack, color.Faint)
	userColor       = color.New(color.FgGreen, color.Bold)
)

// Console writes agent output for the operator. Regular output goes to out,
// warnings and errors to errOut.
type Console struct {
	out     io.Writer
	errOut  io.Writer
	spinner bool
}

// NewConsole creates a Console. The waiting spinner is enabled only when errOut is a terminal.
func NewConsole(out, errOut io.Writer) *Console {
	c := &Console{out: out, errOut: errOut}
	if f, ok := errOut.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		c.spinner = true
	}
	return c
}

// Out returns the writer of regular output
func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

// Dim prints secondary information like progress of tools
func (c *Console) Dim(format string, args ...any) {
	toolResultColor.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Warn(format string, args ...any) {
	warnColor.Fprintf(c.errOut, "Warning: "+format+"\n", args...)
}

func (c *Console) SevereWarn(format string, args ...any) {
	severeColor.Fprintf(c.errOut, "Warning: "+format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	errorColor.Fprintf(c.errOut, "Error: "+format+"\n", args...)
}

// UserPrompt returns the label printed before operator input
func (c *Console) UserPrompt(label string) string {
	return userColor.Sprint(label)
}

// Assistant prints a final answer of the model. <think> blocks are dimmed.
func (c *Console) Assistant(content string) {
	fmt.Fprintf(c.out, "\n%s\n%s\n", assistantColor.Sprint("Assistant:"), dimThink(content))
}

func dimThink(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "<think>")
		if start < 0 {
			break
		}
		b.WriteString(content[:start])

		end := strings.Index(content[start:], "</think>")
		if end < 0 {
			b.WriteString(thinkColor.Sprint(content[start:]))
			return b.String()
		}
		end += start + len("</think>")
		b.WriteString(thinkColor.Sprint(content[start:end]))
		content = content[end:]
	}
	b.WriteString(content)
	return b.String()
}

// ToolRequest prints a tool call requested by the model
func (c *Console) ToolRequest(name string, args map[string]any, raw string) {
	fmt.Fprintf(c.out, "\n%s\n  Function: %s\n", toolColor.Sprint("Tool Call Request:"), name)
	if args == nil {
		fmt.Fprintf(c.out, "  Arguments (raw): %s\n", raw)
		return
	}

	display := args
	if code, ok := args["code"].(string); ok && name == "execute_python_code" {
		display = make(map[string]any, len(args))
		for k, v := range args {
			display[k] = v
		}
		display["code"] = "\n      " + strings.ReplaceAll(code, "\n", "\n      ")
	}

	formatted, err := json.MarshalIndent(display, "", "  ")
	if err != nil {
		fmt.Fprintf(c.out, "  Arguments (raw): %s\n", raw)
		return
	}
	fmt.Fprintf(c.out, "  Arguments:\n%s\n", formatted)
}

// ToolResult prints the serialized result of a tool call, pretty-printed when it is JSON
func (c *Console) ToolResult(callID, name, content string) {
	short := callID
	if len(short) > 8 {
		short = short[:8]
	}
	fmt.Fprintf(c.out, "\n%s\n", toolResultColor.Sprintf("Tool Result (%s [%s...]):", name, short))

	var v any
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		if formatted, err := json.MarshalIndent(v, "", "  "); err == nil {
			fmt.Fprintf(c.out, "%s\n", formatted)
			return
		}
	}
	fmt.Fprintf(c.out, "%s\n", content)
}

// Wait shows a spinner with msg until the returned function is called
func (c *Console) Wait(msg string) func() {
	if !c.spinner {
		toolResultColor.Fprintf(c.out, "\n%s\n", msg)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.errOut))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
