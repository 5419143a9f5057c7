package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
)

func TestAutoMigrateAllIsRepeatable(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), GormConfig(nil))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := AutoMigrateAll(gdb); err != nil {
			t.Fatalf("AutoMigrateAll pass %d: %v", i+1, err)
		}
	}
	for _, m := range types.Models() {
		if !gdb.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss", Name: "missions"}
	if got := cfg.DSN(); got != "postgres://app:p%40ss@db:5432/missions?sslmode=disable" {
		t.Fatalf("DSN = %q", got)
	}
	cfg.URL = "postgres://x"
	if cfg.DSN() != "postgres://x" {
		t.Fatalf("URL should win")
	}
}
