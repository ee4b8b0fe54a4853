// Package coverage produces an HTML coverage report after instrumented native tests.
//
// The pipeline runs lcov and genhtml in a fixed order, each stage gated on the
// previous one:
//
//	toolcheck -> discover -> capture -> filter -> render -> summary
//
// Nothing here ever fails the build. A failing stage is reported in the returned
// Report and in log lines, and the remaining stages are skipped.
package coverage
