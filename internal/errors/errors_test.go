package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("exit status 1"), CategoryTool, SeverityFatal, "zipalign failed"),
			expected: "tool (fatal): zipalign failed: exit status 1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestBuildError_WithContext(t *testing.T) {
	err := New(CategoryEnvironment, SeverityFatal, "missing").
		WithContext("tool", "aapt").
		WithContext("path", "/sdk/build-tools/35.0.0/aapt")

	require.NotNil(t, err.Context)
	assert.Equal(t, "aapt", err.Context["tool"])
	assert.Equal(t, "/sdk/build-tools/35.0.0/aapt", err.Context["path"])
}

func TestIsCategory_FollowsWrapping(t *testing.T) {
	envErr := SDKNotFound("/nowhere")
	wrapped := fmt.Errorf("resolve: %w", envErr)

	assert.True(t, IsCategory(envErr, CategoryEnvironment))
	assert.True(t, IsCategory(wrapped, CategoryEnvironment))
	assert.False(t, IsCategory(wrapped, CategoryConfig))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryEnvironment))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ToolMissing", func(t *testing.T) {
		err := ToolMissing("d8", "/sdk/build-tools/35.0.0/d8")
		assert.Equal(t, CategoryEnvironment, err.Category)
		assert.Equal(t, SeverityFatal, err.Severity)
		assert.Equal(t, "d8", err.Context["tool"])
	})

	t.Run("StageFailed", func(t *testing.T) {
		cause := fmt.Errorf("exit status 2")
		err := StageFailed("align", cause)
		assert.Equal(t, CategoryBuild, err.Category)
		assert.True(t, stdErrors.Is(err, cause))
		assert.Equal(t, "align", err.Context["stage"])
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("package", "must not be empty")
		assert.Equal(t, CategoryValidation, err.Category)
		assert.Equal(t, "package", err.Context["field"])
		assert.Equal(t, "must not be empty", err.Context["reason"])
	})
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"missing sdk", SDKNotFound("/sdk"), ExitEnvironment},
		{"missing tool wrapped", fmt.Errorf("x: %w", ToolMissing("aapt", "/a")), ExitEnvironment},
		{"config", ConfigNotFound("apkbuilder.yaml"), ExitConfig},
		{"validation", ValidationFailed("name", "empty"), ExitUsage},
		{"stage", StageFailed("dex", fmt.Errorf("boom")), ExitBuild},
		{"canceled", Canceled(fmt.Errorf("context canceled")), ExitRuntime},
		{"plain", fmt.Errorf("boom"), ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatNamesMissingPath(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	msg := a.FormatError(ToolMissing("apksigner", "/sdk/build-tools/35.0.0/apksigner"))
	assert.Contains(t, msg, "/sdk/build-tools/35.0.0/apksigner")
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logBuf, outBuf bytes.Buffer
	a := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&logBuf, nil)))
	a.out = &outBuf

	code := a.Report(SDKNotFound("/missing/sdk"))

	assert.Equal(t, ExitEnvironment, code)
	assert.Contains(t, outBuf.String(), "/missing/sdk")
	assert.Contains(t, logBuf.String(), "category=environment")
}
