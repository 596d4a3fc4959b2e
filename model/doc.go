// Package model implements the schema-constrained document tree.
//
// Documents are immutable trees of Nodes. Positions are integer offsets into
// the flattened content of a node: every rune of text counts as one unit,
// every non-leaf node contributes an opening and a closing token, and a leaf
// node (for example a horizontal rule) counts as one unit.
//
// Unchanged subtrees are shared between document versions, so callers must
// treat Nodes, Fragments and Attrs returned from this package as read-only.
package model
