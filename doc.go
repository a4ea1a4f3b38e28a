// Package qntf implements a canonical ternary Boolean expression
// catalogue: a fixed-capacity tree representation built from the single
// Q?T:F primitive (package tiny), a normaliser that reduces any tree to
// a canonical form and recognises when it names an already-catalogued
// Boolean function up to permutation of its variables (packages
// normalize and imprint), a generator that enumerates every canonical
// tree of a given node count (package gen), and compilers that turn a
// built catalogue into constant-time rewrite data (packages rewrite and
// pattern) plus a depreciation engine that prunes redundant catalogue
// members while preserving coverage (package deprec).
//
// The root package exposes Catalog as the single entry point: New/Open
// to obtain one, Query/Generate to populate and query it, Save to
// persist it as an on-disk container (package container). The CLI in
// cmd/qntf wraps this API with subcommands matching the external
// interfaces in SPEC_FULL.md §6.
package qntf
