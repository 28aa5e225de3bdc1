package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/bitgains/backend/src/logger"
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
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateMovementsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS movements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		addr TEXT NOT NULL,
		txid TEXT NOT NULL,
		block_time INTEGER NOT NULL,
		amount_in INTEGER NOT NULL DEFAULT 0,
		amount_out INTEGER NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(addr, txid)
	);

	CREATE TABLE IF NOT EXISTS prices (
		currency TEXT NOT NULL,
		date TEXT NOT NULL,
		cents INTEGER NOT NULL,
		PRIMARY KEY(currency, date)
	);

	CREATE TABLE IF NOT EXISTS imported_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		block_time INTEGER NOT NULL,
		addr TEXT,
		txid TEXT,
		amount_in INTEGER NOT NULL DEFAULT 0,
		amount_out INTEGER NOT NULL DEFAULT 0,
		exchange_rate INTEGER NOT NULL,
		fiat_in INTEGER NOT NULL DEFAULT 0,
		fiat_out INTEGER NOT NULL DEFAULT 0,
		fiat_currency TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
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

func migrateMovementsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='movements'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'movements' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'movements' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'movements' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'movements' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(movements)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'movements'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'movements': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'movements'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'movements': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'movements'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'movements': %v", err)
		}
		return
	}

	if _, ok := columnExists["fetched_at"]; !ok {
		_, err := DB.Exec("ALTER TABLE movements ADD COLUMN fetched_at TIMESTAMP")
		if err != nil {
			logger.L.Error("Error adding 'fetched_at' column to 'movements' table", "error", err)
		} else {
			logger.L.Info("Added 'fetched_at' column to 'movements' table")
		}
	}
}
