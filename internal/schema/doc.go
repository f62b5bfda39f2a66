// Package schema derives table metadata from entity declarations.
//
// An entity type declares its table once, in DeclareTable, by listing its
// members with typed accessors. The registry validates the declaration,
// caches the resulting Mapping per type, and hands the same immutable
// TableMap to every caller. Nothing in this package walks struct fields;
// values move through the declared accessors only.
package schema
