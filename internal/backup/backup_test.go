package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/storage/sqlite"
)

var testCol = storage.CollectionPath{UID: "u1", Collection: "good_habits"}

// setupTestDB creates an initialized store file holding one habit document.
func setupTestDB(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "habitkeeper.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	id, err := store.Create(ctx, testCol, storage.Fields{"name": "Read"})
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	return dbPath, id
}

func countDocuments(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	return n
}

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		now := t
		t = t.Add(time.Minute)
		return now
	}
}

func TestCreate(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(path) != mgr.Dir() {
		t.Errorf("expected backup in %s, got %s", mgr.Dir(), path)
	}
	if got := countDocuments(t, path); got != 1 {
		t.Errorf("expected 1 document in backup, got %d", got)
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestCreateSameSecondAddsCounter(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)
	at := time.Date(2026, 10, 14, 8, 30, 0, 0, time.Local)
	mgr.now = func() time.Time { return at }

	first, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	second, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct backup names, got %s twice", first)
	}
	if filepath.Base(second) != "habitkeeper-20261014-083000-1.db" {
		t.Errorf("unexpected name %s", filepath.Base(second))
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 backups, got %d", len(backups))
	}
}

func TestListNewestFirst(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2026, 10, 1, 12, 0, 0, 0, time.Local))

	for i := 0; i < 3; i++ {
		if _, err := mgr.Create(context.Background()); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	// unrelated files are ignored
	if err := os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i-1].Timestamp.After(backups[i].Timestamp) {
			t.Errorf("backups not sorted newest first: %v then %v", backups[i-1].Timestamp, backups[i].Timestamp)
		}
	}
}

func TestListWithoutDirectory(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "habitkeeper.db"))
	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.keep = 2
	mgr.now = fixedClock(time.Date(2026, 10, 1, 12, 0, 0, 0, time.Local))

	var created []string
	for i := 0; i < 4; i++ {
		p, err := mgr.Create(context.Background())
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		created = append(created, p)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after pruning, got %d", len(backups))
	}
	if backups[0].Path != created[3] || backups[1].Path != created[2] {
		t.Errorf("expected the two newest backups to survive, got %s and %s", backups[0].Path, backups[1].Path)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2026, 10, 1, 12, 0, 0, 0, time.Local))

	snap, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store := sqlite.NewStore(dbPath)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := store.Create(ctx, testCol, storage.Fields{"name": "Run"}); err != nil {
		t.Fatalf("Create document failed: %v", err)
	}
	store.Close()
	if got := countDocuments(t, dbPath); got != 2 {
		t.Fatalf("expected 2 documents before restore, got %d", got)
	}

	previous, err := mgr.Restore(ctx, snap)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := countDocuments(t, dbPath); got != 1 {
		t.Errorf("expected 1 document after restore, got %d", got)
	}
	if got := countDocuments(t, previous); got != 2 {
		t.Errorf("expected pre-restore snapshot to hold 2 documents, got %d", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary restore file left behind")
	}
}

func TestRestoreRejectsForeignFile(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	mgr := NewManager(dbPath)

	other := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", other)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := mgr.Restore(context.Background(), other); err == nil {
		t.Fatal("expected restore of a non-habitkeeper database to fail")
	}
	if _, err := mgr.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("expected restore of a missing file to fail")
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitkeeper-20261014-083000.db", true},
		{"habitkeeper-20261014-083000-3.db", true},
		{"habitkeeper-20261014-083000-x.db", false},
		{"habitkeeper-2026.db", false},
		{"other-20261014-083000.db", false},
		{"habitkeeper-20261014-083000.sqlite", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseName(tt.name); ok != tt.ok {
				t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}
