// Package toolexec runs the external command-line tools fwbuild drives (lcov, genhtml, git).
//
// A non-zero exit status is not an error: it is reported through Result.ExitCode so that
// callers can decide whether to retry, abort a stage, or continue. Errors are reserved for
// processes that could not be started at all (missing binary, cancelled context).
package toolexec
