package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	inbox "github.com/goliatone/go-station-inbox"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsMatchingDialectTrees(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Dialect != DialectPostgres || sources[1].Dialect != DialectSQLite {
		t.Fatalf("unexpected dialect order %s, %s", sources[0].Dialect, sources[1].Dialect)
	}
	want := []string{"00001_station_inbox_schema", "00002_monitor_outbox"}
	for _, source := range sources {
		if strings.Join(source.Versions, ",") != strings.Join(want, ",") {
			t.Fatalf("unexpected %s versions %v", source.Dialect, source.Versions)
		}
	}
}

func TestSources_RejectsMissingDownAndDialectDrift(t *testing.T) {
	missingDown := fstest.MapFS{
		"data/sql/migrations/00001_a.up.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_a.up.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Sources(missingDown); err == nil || !strings.Contains(err.Error(), "no down file") {
		t.Fatalf("expected missing down error, got %v", err)
	}

	drift := fstest.MapFS{
		"data/sql/migrations/00001_a.up.sql":          {Data: []byte("SELECT 1;")},
		"data/sql/migrations/00001_a.down.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/00002_b.up.sql":          {Data: []byte("SELECT 1;")},
		"data/sql/migrations/00002_b.down.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_a.down.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Sources(drift); err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("expected dialect drift error, got %v", err)
	}
}

func TestRegister_UsesSelectedDialects(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect+":"+label)
		return nil
	}, WithDialects(" SQLite "), WithSourceLabel("inbox-tests"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != "sqlite:inbox-tests" {
		t.Fatalf("unexpected registration calls %v", calls)
	}
	if len(reg.Sources) != 1 || reg.Sources[0].Dialect != DialectSQLite {
		t.Fatalf("unexpected registered sources %#v", reg.Sources)
	}

	if _, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return nil
	}, WithDialects("mysql")); err == nil {
		t.Fatalf("expected unsupported dialect to fail")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := inbox.GetMigrationsFS()
	for _, name := range []string{"00001_station_inbox_schema", "00002_monitor_outbox"} {
		paths := []string{
			"data/sql/migrations/" + name + ".up.sql",
			"data/sql/migrations/" + name + ".down.sql",
			"data/sql/migrations/sqlite/" + name + ".up.sql",
			"data/sql/migrations/sqlite/" + name + ".down.sql",
		}
		for _, migrationPath := range paths {
			content, err := fs.ReadFile(root, migrationPath)
			if err != nil {
				t.Fatalf("read migration %s: %v", migrationPath, err)
			}
			if strings.TrimSpace(string(content)) == "" {
				t.Fatalf("expected migration %s to have SQL content", migrationPath)
			}
		}
	}
}

func TestRegister_RejectsMissingRegisterFunc(t *testing.T) {
	reg, err := Register(context.Background(), nil)
	if err == nil {
		t.Fatalf("expected missing register function to fail")
	}
	if reg.SourceLabel != "go-station-inbox" {
		t.Fatalf("expected default source label, got %q", reg.SourceLabel)
	}
}

func TestSQLiteSchemaMigrations_ApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-station-inbox?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(inbox.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	for _, migration := range []string{"00001_station_inbox_schema.up.sql", "00002_monitor_outbox.up.sql"} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	statements := []string{
		`INSERT INTO countries (code, name, active) VALUES ('de', 'Deutschland', 1)`,
		`INSERT INTO stations (country_code, id, title, lat, lon) VALUES ('de', '8000', 'Hannover Hbf', 52.376, 9.741)`,
		`INSERT INTO inbox_entries (id, country_code, station_id, photographer_id, extension, created_at) VALUES ('e1', 'de', '8000', 'u1', 'jpg', '2026-01-01 00:00:00+00:00')`,
		`INSERT INTO monitor_outbox (id, text, status) VALUES ('m1', 'hello', 'pending')`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			t.Fatalf("exec %q: %v", statement, err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO stations (country_code, id, title, lat, lon) VALUES ('xx', '1', 'Orphan', 0, 0)`,
	); err == nil {
		t.Fatalf("expected station without country to violate the foreign key")
	}

	var done bool
	if err := db.QueryRowContext(ctx, `SELECT done FROM inbox_entries WHERE id = 'e1'`).Scan(&done); err != nil {
		t.Fatalf("read inbox entry: %v", err)
	}
	if done {
		t.Fatalf("expected new inbox entry to default to pending")
	}

	for _, migration := range []string{"00002_monitor_outbox.down.sql", "00001_station_inbox_schema.down.sql"} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("rollback migration %s: %v", migration, err)
		}
	}
	var remaining int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('countries', 'users', 'stations', 'photos', 'inbox_entries', 'monitor_outbox')`,
	).Scan(&remaining); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected rollback to drop all tables, %d left", remaining)
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
