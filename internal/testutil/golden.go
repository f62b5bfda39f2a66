// Package testutil holds helpers shared by litemap tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Golden returns a goldie instance reading testdata/golden/<name>.golden
// relative to the calling package.
//
// To regenerate fixtures, run:
//
//	go test ./internal/<pkg> -update
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
}

// Transcript joins labelled SQL entries into a stable text block:
//
//	-- label
//	SQL
//
// Each entry ends with a newline so fixtures diff line by line.
type Transcript struct {
	b strings.Builder
}

// Add appends one labelled entry.
func (tr *Transcript) Add(label, sql string) {
	tr.b.WriteString("-- ")
	tr.b.WriteString(label)
	tr.b.WriteByte('\n')
	tr.b.WriteString(sql)
	tr.b.WriteByte('\n')
}

// Bytes returns the transcript contents.
func (tr *Transcript) Bytes() []byte {
	return []byte(tr.b.String())
}
