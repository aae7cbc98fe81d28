package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// StoreManager guards the process-wide reading store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	readings     contract.ReadingStore
}

// GetReadingStore returns the reading store, or a NoneStore before initialization.
func (mgr *StoreManager) GetReadingStore() contract.ReadingStore {
	mgr.RLock()
	defer mgr.RUnlock()
	if mgr.readings == nil {
		return NewNoneStore()
	}
	return mgr.readings
}

// GetDBFilePath returns the path to the SQLite DB file for reading storage.
func GetDBFilePath() string {
	return contract.GetDBFilePath()
}

// InitStore initializes the global reading store exactly once.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		readings, err := NewReadingStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize reading store: %w", err)
			return
		}
		Manager.Lock()
		Manager.readings = readings
		Manager.Unlock()
	})
	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.readings != nil {
			_ = Manager.readings.Close()
		}
	})
}

// ClearStore removes all stored readings for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table and the migration table.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return dropSQLTables("mysql", connStr, readingsTable, migrationsTable)

	case schema.PostgreSQLBackend:
		return dropSQLTables("pgx", connStr, readingsTable, migrationsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// dropSQLTables connects to the SQL database and drops each table if it exists.
func dropSQLTables(driverName, connStr string, tables ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
