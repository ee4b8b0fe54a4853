package git

import "errors"

var (
	// ErrNotRepository is returned when no repository encloses the directory.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoCommits is returned for a repository whose HEAD is unborn.
	ErrNoCommits = errors.New("repository has no commits")
	// ErrNoExactTag is returned by ExactTag when no tag points at HEAD.
	ErrNoExactTag = errors.New("no tag exactly matches HEAD")
)
