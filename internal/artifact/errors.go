package artifact

import "fmt"

// NotFoundError indicates a source file or prior-stage artifact is missing.
type NotFoundError struct {
	Resource string
	Path     string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s not found at %s", e.Resource, e.Path)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// CorruptError indicates an artifact file exists but cannot be decoded.
// Deliberately distinct from a cache miss: a present-but-unreadable file is
// surfaced for inspection, never treated as absent.
type CorruptError struct {
	Stage string
	Path  string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt %s artifact at %s: %v", e.Stage, e.Path, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return e.Cause
}

// ComputeError wraps a stage compute function failure with the stage name.
type ComputeError struct {
	Stage string
	Cause error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *ComputeError) Unwrap() error {
	return e.Cause
}
