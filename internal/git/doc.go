// Package git implements `git describe --tags` semantics on top of go-git so the
// version stamper works on hosts without a git binary.
//
// The native describer supports the two invocations the stamper needs:
//   - ExactTag: the tag pointing at HEAD (`--exact-match`)
//   - Describe: `<tag>-<distance>-g<abbrev>` or the bare abbreviated hash
//     when no tag is reachable (`--always`)
//
// Annotated tags are peeled to their commit. Lightweight tags are honoured as
// `--tags` does.
package git
