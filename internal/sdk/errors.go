package sdk

import (
	"fmt"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
)

// SDKNotFoundError reports a missing SDK root directory.
type SDKNotFoundError struct {
	Root string
}

func (e *SDKNotFoundError) Error() string {
	return fmt.Sprintf("Android SDK not found at %s", e.Root)
}

// MissingToolError reports a build tool that is absent from the SDK.
type MissingToolError struct {
	Tool string
	Path string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Tool, e.Path)
}

func sdkNotFound(root string) error {
	be := apkerrors.SDKNotFound(root)
	be.Cause = &SDKNotFoundError{Root: root}
	return be
}

func missingTool(tool, path string) error {
	be := apkerrors.ToolMissing(tool, path)
	be.Cause = &MissingToolError{Tool: tool, Path: path}
	return be
}
