package build

import (
	"errors"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/pipeline"
)

// classify maps a pipeline error onto the CLI error categories.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		return err
	}
	if se.Kind == pipeline.StageErrorCanceled {
		return apkerrors.Canceled(err).WithContext("stage", string(se.Stage))
	}
	be := apkerrors.StageFailed(string(se.Stage), err)
	var te *pipeline.ToolError
	if errors.As(err, &te) {
		be.Category = apkerrors.CategoryTool
		be.WithContext("tool", te.Tool).WithContext("exit_code", te.ExitCode)
	}
	return be
}
