package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
	"git.home.luguber.info/inful/apkbuilder/internal/version"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// ToolRun records one external tool invocation.
type ToolRun struct {
	Tool     string        `yaml:"tool"`
	Command  string        `yaml:"command"`
	ExitCode int           `yaml:"exit_code"`
	Duration time.Duration `yaml:"duration"`
	Output   string        `yaml:"output,omitempty"` // tail, kept for failures only
}

// StageReport is the outcome of one stage.
type StageReport struct {
	Name     StageName     `yaml:"name"`
	Result   StageResult   `yaml:"result"`
	Duration time.Duration `yaml:"duration"`
	Tools    []ToolRun     `yaml:"tools,omitempty"`
	Issues   []string      `yaml:"issues,omitempty"`
}

// Report captures the outcome of one package build.
type Report struct {
	SchemaVersion int             `yaml:"schema_version"`
	BuildID       string          `yaml:"build_id"`
	Version       string          `yaml:"apkbuilder_version"`
	Target        string          `yaml:"target"`
	Package       string          `yaml:"package"`
	ABI           string          `yaml:"abi"`
	Mode          config.ExecMode `yaml:"mode"`
	Start         time.Time       `yaml:"start"`
	End           time.Time       `yaml:"end"`
	Stages        []*StageReport  `yaml:"stages"`
	Warnings      []string        `yaml:"warnings,omitempty"`
	Errors        []string        `yaml:"errors,omitempty"`
	Outcome       BuildOutcome    `yaml:"outcome"`

	KeystoreCreated bool   `yaml:"keystore_created"`
	Deployed        string `yaml:"deployed,omitempty"`

	errs     []error
	warnings []error
}

// NewReport starts a report for one build.
func NewReport(buildID, target, pkg, abi string, mode config.ExecMode) *Report {
	return &Report{
		SchemaVersion: 1,
		BuildID:       buildID,
		Version:       version.Version,
		Target:        target,
		Package:       pkg,
		ABI:           abi,
		Mode:          mode,
		Start:         time.Now(),
	}
}

// stage returns the report entry for name, creating it on first use.
func (r *Report) stage(name StageName) *StageReport {
	for _, s := range r.Stages {
		if s.Name == name {
			return s
		}
	}
	s := &StageReport{Name: name}
	r.Stages = append(r.Stages, s)
	return s
}

// Stage returns the recorded entry for name, or nil.
func (r *Report) Stage(name StageName) *StageReport {
	for _, s := range r.Stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddIssue records err against stage as a warning or an error.
func (r *Report) AddIssue(stage StageName, kind StageErrorKind, err error) {
	s := r.stage(stage)
	s.Issues = append(s.Issues, err.Error())
	if kind == StageErrorWarning {
		r.warnings = append(r.warnings, err)
		r.Warnings = append(r.Warnings, err.Error())
		return
	}
	r.errs = append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}

// RecordTool appends a tool invocation to stage.
func (r *Report) RecordTool(stage StageName, run ToolRun) {
	s := r.stage(stage)
	s.Tools = append(s.Tools, run)
}

// RecordStageResult stores the result and duration of stage.
func (r *Report) RecordStageResult(stage StageName, res StageResult, d time.Duration) {
	s := r.stage(stage)
	s.Result = res
	s.Duration = d
}

// Finish sets the end time of the report.
func (r *Report) Finish() { r.End = time.Now() }

// DeriveOutcome sets Outcome from the recorded errors and warnings.
func (r *Report) DeriveOutcome() {
	if len(r.errs) > 0 {
		for _, e := range r.errs {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("target=%s abi=%s mode=%s duration=%s stages=%d errors=%d warnings=%d outcome=%s",
		r.Target, r.ABI, r.Mode, dur.Truncate(time.Millisecond), len(r.Stages), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Table renders one line per stage for terminal output.
func (r *Report) Table() string {
	var b strings.Builder
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "  %-10s %-8s %8s\n", s.Name, s.Result, s.Duration.Truncate(time.Millisecond))
		for _, issue := range s.Issues {
			fmt.Fprintf(&b, "    %s\n", firstLine(issue))
		}
	}
	return b.String()
}

// WriteYAML writes the report to path atomically.
func (r *Report) WriteYAML(path string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("ensure report dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
