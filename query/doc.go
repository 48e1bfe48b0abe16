// Package query filters, sorts, and paginates canonical trend rows.
//
// Predicates are optional and AND-combined; the result envelope is
// deterministic for an unchanged row set and criteria.
package query
