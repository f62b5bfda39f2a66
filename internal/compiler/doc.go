// Package compiler turns CUE table declarations into schema.TableMaps.
//
// A declaration file looks like:
//
//	datetime: "text" // or "unix_nano"; optional
//
//	tables: stocks: columns: {
//		Id:     {type: "integer", primary_key: true, auto_increment: true}
//		Symbol: {type: "text", max_length: 8, unique: true}
//		Price:  {type: "real", column: "price_usd"}
//	}
//
// Columns keep their declaration order. Declarations are checked against
// a CUE schema first (unknown fields and types are rejected with source
// positions), then go through the same validation as typed entities.
package compiler
