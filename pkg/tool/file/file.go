// Package file provides filesystem tools: read, write, copy, list and mkdir.
package file

import (
	"github.com/m-mizutani/toolagent/pkg/tool"
)

// Tools returns all filesystem tools
func Tools() []tool.Tool {
	return []tool.Tool{
		NewRead(),
		NewWrite(),
		NewCopy(),
		NewList(),
		NewMkdir(),
	}
}

type resultOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func failed(format string, err error) *resultOutput {
	return &resultOutput{Error: format + err.Error()}
}
