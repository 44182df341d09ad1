package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/geo")

	if cfg.URL != "postgres://localhost/geo" {
		t.Errorf("unexpected URL %s", cfg.URL)
	}
	if cfg.MaxOpenConns <= cfg.MaxIdleConns {
		t.Error("expected more open than idle connections")
	}
}

func TestNewDB_PoolLeavesRoomForPruneLock(t *testing.T) {
	tests := []struct {
		configured int
		expected   int
	}{
		{1, 2},
		{2, 2},
		{10, 10},
		{0, 0}, // unlimited
	}

	for _, tt := range tests {
		pool, _, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		cfg := DefaultConfig("")
		cfg.MaxOpenConns = tt.configured

		db := newDB(pool, cfg)

		if got := db.pool.Stats().MaxOpenConnections; got != tt.expected {
			t.Errorf("MaxOpenConns %d: expected %d, got %d", tt.configured, tt.expected, got)
		}
		pool.Close()
	}
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS search_log").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDB_Collector(t *testing.T) {
	db, _ := newMockDB(t)
	reg := prometheus.NewRegistry()

	if err := reg.Register(db.Collector()); err != nil {
		t.Fatalf("register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "go_sql_max_open_connections" {
			continue
		}
		m := mf.GetMetric()[0]
		if label := m.GetLabel()[0]; label.GetName() != "db_name" || label.GetValue() != "search_log" {
			t.Errorf("unexpected label %s=%s", label.GetName(), label.GetValue())
		}
		if v := m.GetGauge().GetValue(); v != 10 {
			t.Errorf("expected max open connections 10, got %v", v)
		}
		return
	}
	t.Fatal("expected go_sql_max_open_connections metric")
}
