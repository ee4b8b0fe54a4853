// Package hooks models the build system's lifecycle: a configure event before
// compilation and post:<target> events after a target finishes. Actions are
// registered per event and fired sequentially. A failing or panicking action is
// logged and never aborts the build.
package hooks
