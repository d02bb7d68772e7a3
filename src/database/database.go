package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/clubtreso/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS bank_transactions (
		id TEXT PRIMARY KEY,
		execution_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		counterparty_name TEXT,
		counterparty_account TEXT,
		communication TEXT,
		account_number TEXT,
		dedup_hash TEXT NOT NULL,
		is_parent BOOLEAN NOT NULL DEFAULT FALSE,
		parent_id TEXT,
		child_index INTEGER,
		child_count INTEGER,
		matched_entities TEXT NOT NULL DEFAULT '[]',
		category TEXT,
		account_code TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bank_transactions_dedup_hash
		ON bank_transactions(dedup_hash);
	CREATE INDEX IF NOT EXISTS idx_bank_transactions_parent_id
		ON bank_transactions(parent_id);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}
