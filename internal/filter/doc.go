// Package filter narrows a result set against a query through a registry
// of per-field predicates.
//
// Each filter owns a set of field names. The engine applies the filters
// matching a query's fields sequentially, in query field order; fields
// nobody owns are warned about and skipped, never fatal. Registration is
// all-or-nothing per filter, first owner wins.
package filter
