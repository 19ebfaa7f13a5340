package model

// DispatchErrorKind classifies failures that happen around a tool execution
type DispatchErrorKind string

const (
	DispatchInvalidArguments  DispatchErrorKind = "invalid_arguments"
	DispatchUnsupportedTool   DispatchErrorKind = "unsupported_tool"
	DispatchDenied            DispatchErrorKind = "denied_by_operator"
	DispatchToolFailed        DispatchErrorKind = "tool_failed"
	DispatchInvalidToolOutput DispatchErrorKind = "invalid_tool_output"
)

// Sentinel exit codes carried by dispatch errors. They are negative so they
// never collide with a real process exit status.
const (
	ExitCodeDenied           = -4
	ExitCodeInvalidArguments = -5
	ExitCodeUnsupportedTool  = -6
	ExitCodeToolFailed       = -7
)

// DispatchError is the typed error variant of a ToolResult
type DispatchError struct {
	Kind     DispatchErrorKind
	ExitCode int
	Message  string
}

func (x *DispatchError) Error() string {
	return x.Message
}

// ToolResult answers exactly one ToolCallRequest
type ToolResult struct {
	CallID string
	Name   string

	// Content is the serialized payload used as the tool turn's content
	Content string

	// Err is set when the tool was not executed or failed to execute
	Err *DispatchError
}
