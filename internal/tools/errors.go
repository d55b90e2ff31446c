package tools

import "fmt"

// ArgumentError reports a missing or malformed tool argument.
type ArgumentError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid arguments: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("%s: argument %q %s", e.Tool, e.Field, e.Reason)
}

// UnknownToolError reports a tool name outside the fixed set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// UpstreamError reports a failed store read/write or external call.
type UpstreamError struct {
	Tool string
	Op   string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(tool, op string, err error) error {
	return &UpstreamError{Tool: tool, Op: op, Err: err}
}
