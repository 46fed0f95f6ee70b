package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestMultipleContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "b1")
	ctx = WithTarget(ctx, "game")
	ctx = WithStage(ctx, "align")

	lc := GetContext(ctx)
	if lc.BuildID != "b1" || lc.Target != "game" || lc.Stage != "align" {
		t.Errorf("unexpected log context: %+v", lc)
	}
}

func TestInfoContextIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithStage(WithBuildID(context.Background(), "b-42"), "sign")
	InfoContext(ctx, "signing package", slog.String("path", "/tmp/game.apk"))

	out := buf.String()
	for _, want := range []string{"build_id=b-42", "stage=sign", "path=/tmp/game.apk", "signing package"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output: %s", want, out)
		}
	}
}
