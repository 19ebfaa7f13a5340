package agent

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/m-mizutani/toolagent/pkg/utils/logging"
	"github.com/m-mizutani/toolagent/pkg/utils/term"
)

// Approver decides whether a dangerous tool call may run. It never fails:
// anything other than an explicit allow is a denial.
type Approver interface {
	RequestApproval(ctx context.Context, action, detail string) bool
}

const (
	actionPythonCode   = "Execute Python Code"
	actionShellCommand = "Execute Shell Command"

	baseWarning = "Executing commands, writing/copying files, creating directories, or accessing the web can be dangerous."
)

// Gate asks the operator on the terminal
type Gate struct {
	reader  term.LineReader
	console *term.Console
}

func NewGate(reader term.LineReader, console *term.Console) *Gate {
	return &Gate{reader: reader, console: console}
}

func (g *Gate) RequestApproval(ctx context.Context, action, detail string) bool {
	c := g.console
	c.Println("\n-------------------------------------")
	c.Warn("The assistant wants to perform the following action:")
	c.Printf("  Action: %s\n", action)
	if action == actionPythonCode {
		c.Printf("  Code:\n-------\n%s\n-------\n", detail)
	} else {
		c.Printf("  Details: %s\n", detail)
	}
	c.Printf("OS: %s\n", hostInfo())

	switch action {
	case actionPythonCode:
		c.SevereWarn("Executing Python code is EXTREMELY DANGEROUS and runs with script permissions.")
	case actionShellCommand:
		c.SevereWarn("%s\nExecuting SHELL commands can have unintended consequences. Review carefully.", baseWarning)
	default:
		c.Warn(baseWarning)
	}
	c.Println("-------------------------------------")

	prompt := fmt.Sprintf("Allow this action? (%s/N): ", c.UserPrompt("y"))
	for {
		line, err := g.reader.ReadLine(prompt)
		if err != nil {
			logging.From(ctx).Debug("approval input closed", "error", err)
			c.Error("Interrupted/Input closed. Assuming 'No'.")
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return true
		case "n", "":
			return false
		}
		c.Println("Invalid input. Please enter 'y' or 'n'.")
	}
}

// hostInfo describes the machine tools will run on
func hostInfo() string {
	info := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	if host, err := os.Hostname(); err == nil {
		info += " (" + host + ")"
	}
	return info
}
