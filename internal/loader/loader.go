// Package loader replaces the movies and casts tables with a run's rows.
// Both tables are rewritten inside one transaction: a failed load leaves the
// previous contents in place.
package loader

import (
	"context"
	"strconv"
	"strings"

	"github.com/JakeFAU/supermovie/internal/normalize"
)

// Loader replaces both output tables.
type Loader interface {
	Replace(ctx context.Context, movies []normalize.MovieRow, casts []normalize.CastRow) error
	Close() error
}

// Table is one table's schema and rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Tables assembles the movies and casts tables in load order.
func Tables(movies []normalize.MovieRow, casts []normalize.CastRow) []Table {
	movieRows := make([][]any, 0, len(movies))
	for _, m := range movies {
		movieRows = append(movieRows, m.Values())
	}
	castRows := make([][]any, 0, len(casts))
	for _, c := range casts {
		castRows = append(castRows, c.Values())
	}
	return []Table{
		{Name: normalize.MoviesTable, Columns: normalize.MovieColumns, Rows: movieRows},
		{Name: normalize.CastsTable, Columns: normalize.CastColumns, Rows: castRows},
	}
}

// Dialect holds the SQL differences between backends.
type Dialect struct {
	// IDColumn is the column definition of the surrogate key.
	IDColumn string
	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string
}

// SQLite numbers rows with AUTOINCREMENT and binds with "?".
var SQLite = Dialect{
	IDColumn:    `"Id" INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE`,
	Placeholder: func(int) string { return "?" },
}

// Postgres numbers rows with SERIAL and binds with "$n".
var Postgres = Dialect{
	IDColumn:    `"Id" SERIAL PRIMARY KEY`,
	Placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
}

// DropTable returns the statement removing t if it exists.
func (d Dialect) DropTable(t Table) string {
	return `DROP TABLE IF EXISTS ` + quote(t.Name)
}

// CreateTable returns the statement creating t with a surrogate key and
// TEXT data columns.
func (d Dialect) CreateTable(t Table) string {
	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, d.IDColumn)
	for _, c := range t.Columns {
		defs = append(defs, quote(c)+" TEXT")
	}
	return "CREATE TABLE " + quote(t.Name) + " (" + strings.Join(defs, ", ") + ")"
}

// Insert returns the parameterized statement inserting one row of t.
func (d Dialect) Insert(t Table) string {
	cols := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quote(c)
		params[i] = d.Placeholder(i + 1)
	}
	return "INSERT INTO " + quote(t.Name) + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
