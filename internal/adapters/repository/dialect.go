package repository

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	// Registered database/sql drivers: "sqlite", "postgres" and "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// dialect captures the differences between the supported SQL engines.
type dialect struct {
	name         string
	schemaFile   string
	dollarParams bool
	singleWriter bool
}

var (
	dialectSQLite   = dialect{name: "sqlite", schemaFile: "schema/sqlite.sql", singleWriter: true}
	dialectPostgres = dialect{name: "postgres", schemaFile: "schema/postgres.sql", dollarParams: true}
)

// dialectFor maps a database/sql driver name to its dialect.
func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite":
		return dialectSQLite, nil
	case "postgres", "pgx":
		return dialectPostgres, nil
	default:
		return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// rebind rewrites ? placeholders into $n for engines that need it.
func (d dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// statements returns the schema split into single statements.
func (d dialect) statements() ([]string, error) {
	raw, err := schemaFS.ReadFile(d.schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", d.schemaFile, err)
	}
	var out []string
	for _, stmt := range strings.Split(string(raw), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// placeholders returns n comma separated ? markers.
func placeholders(n int, marker string) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat(marker+", ", n), ", ")
}
