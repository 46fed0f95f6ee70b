// Package testing contains helpers shared by package tests: a fake Android
// SDK on disk, a shell.Runner that simulates the SDK tools, and filesystem
// assertions.
package testing

const (
	// testDirPermissions is the permission mode for creating test directories.
	testDirPermissions = 0o750

	// testFilePermissions is the permission mode for creating test files.
	testFilePermissions = 0o600

	// testExecPermissions is the permission mode for fake tool binaries.
	testExecPermissions = 0o755
)
