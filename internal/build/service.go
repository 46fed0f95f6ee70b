package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/apkbuilder/internal/config"
	"git.home.luguber.info/inful/apkbuilder/internal/pipeline"
	"git.home.luguber.info/inful/apkbuilder/internal/sdk"
)

// Service is the canonical interface for executing package builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// Config is the merged file and flag configuration. Project must be complete.
	Config *config.Config
}

// Result contains the outcome of a build execution.
type Result struct {
	Status  Status
	BuildID string

	// Report is nil when the build failed before the pipeline started.
	Report    *pipeline.Report
	Toolchain *sdk.Toolchain

	Artifact        string // signed package under the output root
	Deployed        string
	KeystoreCreated bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if the build produced a deployed package.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}

func statusFromOutcome(o pipeline.BuildOutcome) Status {
	switch o {
	case pipeline.OutcomeSuccess:
		return StatusSuccess
	case pipeline.OutcomeWarning:
		return StatusWarning
	case pipeline.OutcomeCanceled:
		return StatusCanceled
	default:
		return StatusFailed
	}
}
