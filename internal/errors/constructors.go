package errors

// Convenience functions for common error patterns

// Config errors

func ConfigInvalid(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be loaded").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ClassifiedError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build context and output files

func ContextFileError(operation, path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "build context "+operation+" failed").
		WithContext("path", path)
}

func OutputWriteError(path string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "writing output failed").
		WithContext("path", path)
}

// External tools

func ToolUnavailable(tool string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryTool, SeverityWarning, "external tool unavailable").
		WithContext("tool", tool)
}

func ToolFailed(tool string, exitCode int) *ClassifiedError {
	return New(CategoryTool, SeverityWarning, "external tool failed").
		WithContext("tool", tool).
		WithContext("exit_code", exitCode)
}

// Version control

func NoVersionMetadata(repo string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryVCS, SeverityInfo, "no version control metadata").
		WithContext("repository", repo)
}

// Internal errors

func InternalError(message string, cause error) *ClassifiedError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
