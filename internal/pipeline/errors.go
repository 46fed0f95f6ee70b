package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes that the execution mode may downgrade to warnings.
var (
	ErrToolFailed       = errors.New("tool failed")
	ErrArtifactMissing  = errors.New("artifact missing")
	ErrValidationFailed = errors.New("package validation failed")
)

// ToolError reports a tool that exited non-zero or could not be started.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	// Output is the tail of the tool's stderr, or stdout when stderr was empty.
	Output string
	// Err is set when the tool could not be started or was timed out.
	Err error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	if e.Err != nil {
		fmt.Fprintf(&b, "%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	} else {
		fmt.Fprintf(&b, "%s %s failed with exit code %d", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	}
	if e.Output != "" {
		b.WriteString(": ")
		b.WriteString(e.Output)
	}
	return b.String()
}

func (e *ToolError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrToolFailed, e.Err}
	}
	return []error{ErrToolFailed}
}

// ArtifactRole says on which side of a stage an artifact was checked.
type ArtifactRole string

const (
	RoleRequires ArtifactRole = "requires"
	RoleProduces ArtifactRole = "produces"
)

// ArtifactError reports a file a stage needed or should have produced.
type ArtifactError struct {
	Artifact string
	Path     string
	Stage    StageName
	Role     ArtifactRole
}

func (e *ArtifactError) Error() string {
	if e.Role == RoleProduces {
		return fmt.Sprintf("stage %s did not produce %s at %s", e.Stage, e.Artifact, e.Path)
	}
	return fmt.Sprintf("stage %s requires %s at %s", e.Stage, e.Artifact, e.Path)
}

func (e *ArtifactError) Unwrap() error { return ErrArtifactMissing }
