// Package eval elaborates source bundles into consensus programs.
//
// Elaboration is evaluation: modules run top to bottom over an
// insert-once environment, and the operations that cannot complete at
// compile time lift intermediate-representation statements instead of
// producing plain values. The evaluator tracks three pieces of state
// while it runs:
//
//   - a security level per binding, Public or Secret, combined with the
//     meet of the two-point lattice,
//   - the protocol mode (module, step, local, local step, consensus),
//     which decides which operations are legal where,
//   - per-participant private environments, advanced by only blocks and
//     reconciled with the shared view at publish and commit.
//
// Errors carry stable E2xx codes, source positions, and near-miss
// suggestions; see CodeOf and IsInternal.
package eval
