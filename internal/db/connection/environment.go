package connection

import (
	"strconv"
	"strings"
)

// pgEnvironment maps libpq environment variables to connection keywords.
// PGPASSWORD is left out; pgx reads it and ~/.pgpass on its own.
var pgEnvironment = []struct{ env, keyword string }{
	{"PGHOST", "host"},
	{"PGPORT", "port"},
	{"PGDATABASE", "dbname"},
	{"PGUSER", "user"},
	{"PGSSLMODE", "sslmode"},
}

// EnvironmentDSN builds a keyword/value connection string from the PG*
// variables. It returns "" unless at least one of PGHOST, PGDATABASE or
// PGUSER is set.
func EnvironmentDSN(getenv func(string) string) string {
	if getenv("PGHOST") == "" && getenv("PGDATABASE") == "" && getenv("PGUSER") == "" {
		return ""
	}

	var parts []string
	for _, e := range pgEnvironment {
		value := strings.TrimSpace(getenv(e.env))
		if value == "" {
			continue
		}
		if e.env == "PGPORT" {
			if p, err := strconv.Atoi(value); err != nil || p <= 0 || p > 65535 {
				continue
			}
		}
		parts = append(parts, e.keyword+"="+quoteValue(value))
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a keyword/value connection string value when needed
func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
