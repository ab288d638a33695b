// Package ast defines the surface syntax tree the elaborator consumes.
//
// The tree is produced by an external front end and is immutable once
// constructed. Every node carries a source position for diagnostics. The
// node set is a closed allow-list: constructs outside the language arrive
// as Unsupported nodes and are rejected by the evaluator with the rejected
// construct's name.
//
// Bundles (ordered module lists) round-trip through a JSON encoding with a
// per-node "type" discriminator; see EncodeBundle and DecodeBundle.
package ast
