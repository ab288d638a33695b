// Package harness provides conformance helpers for elaboration tests.
//
// Golden snapshots capture the canonical JSON of an elaborated program
// so IR regressions show up as byte-level diffs. Error helpers assert on
// the structured diagnostic codes the evaluator produces, keeping tests
// independent of message wording.
package harness
