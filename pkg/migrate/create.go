package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
	createNameRe   = regexp.MustCompile(`^create_([a-z0-9_]+)_table$`)
	addColumnRe    = regexp.MustCompile(`^add_([a-z0-9_]+)_to_([a-z0-9_]+)$`)
)

// now is swapped in tests.
var now = time.Now

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql. Names of the
// form create_<table>_table and add_<column>_to_<table> get a table or column
// skeleton in the schema's conventions; anything else gets empty sections.
// The version is always later than the newest migration already in dir.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := LoadDir(dir)
	if err != nil {
		return "", err
	}

	version := now().UTC()
	if n := len(existing); n > 0 {
		latest, err := time.Parse(versionLayout, existing[n-1].Version)
		if err != nil {
			return "", fmt.Errorf("parse version of %q: %w", existing[n-1].File, err)
		}
		if !version.After(latest) {
			version = latest.Add(time.Second)
		}
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version.Format(versionLayout), safe))
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}
	if err := os.WriteFile(fullpath, []byte(migrationTemplate(safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

func migrationTemplate(name string) string {
	up, down := "-- "+name, "-- rollback "+name
	if m := createNameRe.FindStringSubmatch(name); m != nil {
		table := m[1]
		up = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, table)
		down = fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
	} else if m := addColumnRe.FindStringSubmatch(name); m != nil {
		column, table := m[1], m[2]
		up = fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT;", table, column)
		down = fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;", table, column)
	}
	return fmt.Sprintf(`%s
%s
%s
%s

%s
%s
%s
%s
`, markerUp, markerStmtBegin, up, markerStmtEnd, markerDown, markerStmtBegin, down, markerStmtEnd)
}
