package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/logger"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := CheckSchema("migrations", SchemaTables...); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadDirOrdersByVersion(t *testing.T) {
	migrations, err := LoadDir("migrations")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, m := range migrations {
		names = append(names, m.Name)
	}
	want := "create_catalog_tables,create_customers_table,create_stock_tables,create_sales_table"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
	if got := strings.Join(migrations[2].CreatedTables(), ","); got != "manufactures,stocks" {
		t.Fatalf("stock migration creates %s", got)
	}
}

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestValidateDirRequiresDownToDropCreatedTables(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250201000000_create_notes_table.sql",
		"-- +goose Up\nCREATE TABLE IF NOT EXISTS notes (id BIGSERIAL);\n\n-- +goose Down\nSELECT 1;\n")
	err := ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "creates notes") {
		t.Fatalf("expected missing drop error, got %v", err)
	}
}

func TestValidateDirRejectsMisorderedSections(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250201000000_swap.sql", "-- +goose Down\n-- +goose Up\n")
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected section order error")
	}

	dir = t.TempDir()
	writeMigration(t, dir, "20250201000000_open_block.sql", "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected unbalanced block error")
	}
}

func TestCheckSchemaReportsMissingTables(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "20250201000000_create_products_table.sql",
		"-- +goose Up\nCREATE TABLE products (id BIGSERIAL);\n-- +goose Down\nDROP TABLE products;\n")
	err := CheckSchema(dir, "products", "sales", "stocks")
	if err == nil || !strings.Contains(err.Error(), "sales, stocks") {
		t.Fatalf("expected missing tables, got %v", err)
	}
}

func TestSalesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_sales_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no sales migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS sales",
		"FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE RESTRICT",
		"total_amount NUMERIC(12,2) NOT NULL",
		"CHECK (status IN ('pending', 'delivered'))",
		"CHECK ((status = 'delivered') = (delivered_date IS NOT NULL))",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestStocksMigrationForbidsNegativeQuantity(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_stock_tables.sql"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no stock migration file found: %v", err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)
	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_stocks_product_measurement ON stocks (product_id, measurement_id)",
		"CHECK (quantity >= 0)",
		"CHECK (quantity > 0)",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Sale Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_sale_notes.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration does not validate: %v", err)
	}
}

func TestCreateSQLMigrationTemplatesAndOrdering(t *testing.T) {
	saved := now
	t.Cleanup(func() { now = saved })
	now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	dir := t.TempDir()
	table, err := CreateSQLMigration(dir, "create returns table")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if filepath.Base(table) != "20250301120000_create_returns_table.sql" {
		t.Fatalf("unexpected path %q", table)
	}
	column, err := CreateSQLMigration(dir, "add_note_to_sales")
	if err != nil {
		t.Fatalf("create column: %v", err)
	}
	if filepath.Base(column) != "20250301120001_add_note_to_sales.sql" {
		t.Fatalf("same-second migration must get a later version, got %q", column)
	}

	body, err := os.ReadFile(table)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, sub := range []string{"CREATE TABLE IF NOT EXISTS returns (", "DROP TABLE IF EXISTS returns;"} {
		if !strings.Contains(string(body), sub) {
			t.Errorf("table template missing %q", sub)
		}
	}
	body, err = os.ReadFile(column)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, sub := range []string{"ALTER TABLE sales ADD COLUMN IF NOT EXISTS note TEXT;", "ALTER TABLE sales DROP COLUMN IF EXISTS note;"} {
		if !strings.Contains(string(body), sub) {
			t.Errorf("column template missing %q", sub)
		}
	}
	if err := CheckSchema(dir, "returns"); err != nil {
		t.Fatalf("generated migrations do not validate: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestRunRequiresDB(t *testing.T) {
	if err := Run(context.Background(), nil, "migrations", "up"); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestMaybeRunUsesFallbackForSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverSQLite
	cfg.DemoAPI.AutoMigrate = true

	called := false
	err := MaybeRun(context.Background(), cfg, logger.Nop(), nil, DefaultDir, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected fallback to run, called=%v err=%v", called, err)
	}

	boom := errors.New("boom")
	err = MaybeRun(context.Background(), cfg, logger.Nop(), nil, DefaultDir, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fallback error, got %v", err)
	}
}

func TestMaybeRunDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverPostgres
	err := MaybeRun(context.Background(), cfg, logger.Nop(), nil, DefaultDir, func(context.Context) error {
		t.Fatal("fallback should not run when auto-migrate is off")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
