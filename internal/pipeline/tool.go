package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
	"git.home.luguber.info/inful/apkbuilder/internal/observability"
	"git.home.luguber.info/inful/apkbuilder/internal/shell"
)

// outputTailLines bounds the captured output kept in errors and reports.
const outputTailLines = 20

// runTool executes cmd in the project directory and turns a failure into a
// *ToolError, or a canceled *StageError when ctx ended.
func runTool(ctx context.Context, bs *BuildState, stage StageName, cmd shell.Cmd) error {
	if cmd.Dir == "" {
		cmd = cmd.In(bs.Layout.ProjectDir)
	}
	tool := toolName(cmd.Name)

	res, err := bs.Runner.Run(ctx, cmd)

	run := ToolRun{Tool: tool, Command: cmd.String(), ExitCode: -1}
	if res != nil {
		run.ExitCode = res.ExitCode
		run.Duration = res.Duration
	}
	if err == nil && !res.Success() {
		run.Output = res.Tail(outputTailLines)
	}
	bs.Report.RecordTool(stage, run)
	bs.Recorder.ObserveToolDuration(tool, run.Duration, err == nil && res.Success())

	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(stage, ctx.Err())
		}
		return &ToolError{Tool: tool, Args: cmd.Args, ExitCode: -1, Err: err}
	}
	if !res.Success() {
		observability.DebugContext(ctx, "Tool failed",
			logfields.Tool(tool),
			logfields.ExitCode(run.ExitCode),
			logfields.Output(run.Output))
		return &ToolError{Tool: tool, Args: cmd.Args, ExitCode: run.ExitCode, Output: run.Output}
	}
	return nil
}

// toolName strips the directory and any Windows suffix from a tool path.
func toolName(p string) string {
	base := filepath.Base(p)
	for _, ext := range []string{".exe", ".bat"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
