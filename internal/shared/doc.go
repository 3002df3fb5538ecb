// Package shared groups helpers used by more than one internal package.
//
// The testutil subpackage carries the test fixtures (raw wide-format
// indicator tables written to a temp directory) and slog capture helpers
// used by the pipeline, storage, transport and CLI tests.
package shared
