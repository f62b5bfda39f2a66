// Package queryir defines the query descriptor handed to the predicate
// translator: an expression tree for filters plus an ordered chain of
// Where / OrderBy / Skip / Take steps.
//
// Expr is a sealed interface using the marker method pattern. Only types in
// this package implement it, so the translator can switch exhaustively:
//
//	switch e := queryir.Normalize(expr).(type) {
//	case queryir.Compare:
//	    // column <op> ?
//	case queryir.Like:
//	    // column LIKE ? ESCAPE '\'
//	...
//	}
//
// Descriptor values are immutable. Each builder method returns a new
// descriptor whose chain shares every earlier step with its parent, so one
// base query can be refined in several directions without copying:
//
//	base := queryir.Descriptor{}.Where(queryir.StartsWith("Symbol", "A"))
//	page1 := base.OrderBy("Symbol").Take(10)
//	page2 := base.OrderBy("Symbol").Skip(10).Take(10)
//
// Nothing in this package touches a database.
package queryir
