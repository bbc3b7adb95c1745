package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hangarops/hangar-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestStockItemsMigrationKeepsQuantityNonNegative(t *testing.T) {
	assertContains(t, readMigration(t, "create_stock_items"), []string{
		"CREATE TABLE IF NOT EXISTS stock_items",
		"CHECK (quantity_available >= 0)",
		"DROP TABLE IF EXISTS stock_items",
	})
}

func TestWorkOrdersMigrationEnforcesLifecycle(t *testing.T) {
	assertContains(t, readMigration(t, "create_work_orders"), []string{
		"CREATE TABLE IF NOT EXISTS work_orders",
		"CHECK (subject_kind IN ('aircraft', 'component'))",
		"CHECK (state IN ('open', 'closed', 'cancelled'))",
		"CHECK (NOT archived OR state <> 'open')",
		"closure_snapshot jsonb",
		"DROP TABLE IF EXISTS work_orders",
	})
}

func TestAssignmentsMigrationConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_assignments"), []string{
		"PRIMARY KEY (order_id, tool_id)",
		"PRIMARY KEY (order_id, stock_item_id)",
		"PRIMARY KEY (order_id, employee_id, role)",
		"FOREIGN KEY (order_id) REFERENCES work_orders(id) ON DELETE CASCADE",
		"CHECK (quantity_used > 0)",
		"CREATE TABLE IF NOT EXISTS stock_movements",
	})
}

func TestWorkLogMigrationRequiresPositiveHours(t *testing.T) {
	assertContains(t, readMigration(t, "create_work_log_entries"), []string{
		"hours numeric(6,2) NOT NULL",
		"CHECK (hours > 0)",
	})
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
