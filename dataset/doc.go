// Package dataset ingests heterogeneous vendor trend files (CSV, TSV,
// JSON) and normalizes them into one canonical row shape.
//
// Field derivation is alias-driven: each canonical field has an
// ordered list of vendor aliases, evaluated uniformly per raw record
// regardless of source format, so new vendor aliases are additive data
// rather than new code paths.
package dataset
