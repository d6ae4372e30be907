// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Open connects to the database of the given type and verifies the
// connection. SQLite is limited to one open connection since it only
// supports a single writer.
func Open(dbType, url string) (*sql.DB, Dialect, error) {
	var dialect Dialect
	switch dbType {
	case "postgres":
		dialect = Postgres
	case "sqlite", "":
		dialect = SQLite
	default:
		return nil, "", fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(string(dialect), url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, dialect, nil
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
// Queries must not contain literal question marks.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
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
