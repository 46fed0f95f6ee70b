package testing

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// FakeSDK lays out a minimal Android SDK under a temp dir and returns its
// root: the four build tools of buildTools and the android.jar of platform.
func FakeSDK(t *testing.T, buildTools string, platform int) string {
	t.Helper()
	root := t.TempDir()

	bt := filepath.Join(root, "build-tools", buildTools)
	mustMkdir(t, bt)
	for _, tool := range []string{"aapt", "d8", "zipalign", "apksigner"} {
		mustWrite(t, filepath.Join(bt, tool), []byte("#!/bin/sh\nexit 0\n"), testExecPermissions)
	}

	pl := filepath.Join(root, "platforms", "android-"+strconv.Itoa(platform))
	mustMkdir(t, pl)
	mustWrite(t, filepath.Join(pl, "android.jar"), []byte("PK fake android.jar"), testFilePermissions)
	return root
}

// NativeLibrary writes a fake lib<name>.so under dir and returns its content.
func NativeLibrary(t *testing.T, dir, name, content string) []byte {
	t.Helper()
	mustMkdir(t, dir)
	data := []byte("\x7fELF " + content)
	mustWrite(t, filepath.Join(dir, "lib"+name+".so"), data, testFilePermissions)
	return data
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, testDirPermissions); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func mustWrite(t *testing.T, path string, data []byte, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
