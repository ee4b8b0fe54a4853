// Package stamp derives the firmware version from git tags and records it in the build
// context as a string macro.
//
// Resolution is tiered and never fails:
//  1. the tag pointing at HEAD (`git describe --tags --exact-match`)
//  2. the descriptive form (`git describe --tags --always`), e.g. v1.2.0-5-g1a2b3c4
//  3. the fallback literal v0.0.0-dev
//
// The git queries run through the git binary or, on hosts without one, the
// go-git implementation in internal/git.
package stamp
