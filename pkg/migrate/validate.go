package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	markerUp        = "-- +goose Up"
	markerDown      = "-- +goose Down"
	markerStmtBegin = "-- +goose StatementBegin"
	markerStmtEnd   = "-- +goose StatementEnd"

	versionLayout = "20060102150405"
)

// SchemaTables are the tables behind the demo backend models. The migration
// set must create each of them.
var SchemaTables = []string{"products", "measurements", "customers", "manufactures", "stocks", "sales"}

var (
	sqlFileRe     = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	createTableRe = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-z_][a-z0-9_]*)`)
	dropTableRe   = regexp.MustCompile(`(?i)DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?([a-z_][a-z0-9_]*)`)
)

// Migration is one parsed goose SQL file.
type Migration struct {
	Version string
	Name    string
	File    string
	Up      string
	Down    string
}

// CreatedTables lists the tables the Up section creates, in order.
func (m Migration) CreatedTables() []string {
	return tableNames(createTableRe, m.Up)
}

// DroppedTables lists the tables the Down section drops.
func (m Migration) DroppedTables() []string {
	return tableNames(dropTableRe, m.Down)
}

func tableNames(re *regexp.Regexp, sql string) []string {
	var out []string
	for _, match := range re.FindAllStringSubmatch(sql, -1) {
		out = append(out, strings.ToLower(match[1]))
	}
	return out
}

// LoadDir parses every .sql file in dir, sorted by version. Filenames must be
// YYYYMMDDHHMMSS_name.sql with unique versions; each file needs an Up section
// followed by a Down section with balanced statement blocks.
func LoadDir(dir string) ([]Migration, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		up, down, err := splitSections(string(b))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
		out = append(out, Migration{Version: m[1], Name: m[2], File: name, Up: up, Down: down})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func splitSections(txt string) (string, string, error) {
	up := strings.Index(txt, markerUp)
	if up < 0 {
		return "", "", fmt.Errorf("missing %q", markerUp)
	}
	down := strings.Index(txt, markerDown)
	if down < 0 {
		return "", "", fmt.Errorf("missing %q", markerDown)
	}
	if down < up {
		return "", "", fmt.Errorf("%q must come before %q", markerUp, markerDown)
	}
	upSQL := txt[up+len(markerUp) : down]
	downSQL := txt[down+len(markerDown):]
	for section, sql := range map[string]string{"Up": upSQL, "Down": downSQL} {
		if strings.Count(sql, markerStmtBegin) != strings.Count(sql, markerStmtEnd) {
			return "", "", fmt.Errorf("%s section has unbalanced statement blocks", section)
		}
	}
	return upSQL, downSQL, nil
}

// ValidateDir checks filenames, version uniqueness and goose section markers,
// and that every table a file creates is dropped again by its Down section.
// An empty directory is valid.
func ValidateDir(dir string) error {
	migrations, err := LoadDir(dir)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		dropped := map[string]bool{}
		for _, t := range m.DroppedTables() {
			dropped[t] = true
		}
		for _, t := range m.CreatedTables() {
			if !dropped[t] {
				return fmt.Errorf("migration %q creates %s but its Down section does not drop it", m.File, t)
			}
		}
	}
	return nil
}

// CheckSchema validates dir and requires every table in tables to be created
// by some migration.
func CheckSchema(dir string, tables ...string) error {
	if err := ValidateDir(dir); err != nil {
		return err
	}
	migrations, err := LoadDir(dir)
	if err != nil {
		return err
	}
	created := map[string]bool{}
	for _, m := range migrations {
		for _, t := range m.CreatedTables() {
			created[t] = true
		}
	}
	var missing []string
	for _, t := range tables {
		if !created[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no migration creates %s", strings.Join(missing, ", "))
	}
	return nil
}
