package pipeline

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
)

// StageOutcome is the normalized result of one stage execution.
type StageOutcome struct {
	Stage  StageName
	Error  *StageError
	Result StageResult
	Abort  bool
}

func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// downgradable reports whether permissive mode may turn err into a warning.
func downgradable(err error) bool {
	return errors.Is(err, ErrToolFailed) ||
		errors.Is(err, ErrArtifactMissing) ||
		errors.Is(err, ErrValidationFailed)
}

// ClassifyStageResult converts a raw stage error into a StageOutcome under
// the given execution mode.
func ClassifyStageResult(stage StageName, err error, mode config.ExecMode) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !errors.As(err, &se) {
		switch {
		case !downgradable(err) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			se = NewCanceledStageError(stage, err)
		case downgradable(err) && mode == config.ExecModePermissive:
			se = NewWarnStageError(stage, err)
		default:
			se = NewFatalStageError(stage, err)
		}
	}

	return StageOutcome{
		Stage:  stage,
		Error:  se,
		Result: resultFromStageErrorKind(se.Kind),
		Abort:  se.Kind == StageErrorFatal || se.Kind == StageErrorCanceled,
	}
}
