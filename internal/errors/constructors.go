package errors

// Convenience functions for common error patterns

// Environment errors

func SDKNotFound(root string) *BuildError {
	return New(CategoryEnvironment, SeverityFatal, "Android SDK not found").
		WithContext("path", root)
}

func ToolMissing(tool, path string) *BuildError {
	return New(CategoryEnvironment, SeverityFatal, "required tool not found in Android SDK").
		WithContext("tool", tool).
		WithContext("path", path)
}

// Config errors

func ConfigNotFound(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *BuildError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func StageFailed(stage string, cause error) *BuildError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func FileSystemError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

func Canceled(cause error) *BuildError {
	return Wrap(cause, CategoryRuntime, SeverityError, "build canceled")
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
