package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// History tables mirror their live tables plus snapshot_at and have no unique
// constraints: the ledger is append-only and one entity accumulates many rows.
var steps = []migrationStep{
	{
		Name: "create_table_identity_records",
		SQL: `CREATE TABLE IF NOT EXISTS identity_records (
  ref_id        VARCHAR(28) PRIMARY KEY,
  uin           TEXT        NOT NULL UNIQUE,
  reg_id        TEXT        NOT NULL UNIQUE,
  document      BYTEA       NOT NULL,
  document_hash TEXT        NOT NULL,
  status_code   TEXT        NOT NULL,
  lang_code     TEXT        NOT NULL,
  created_by    TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_by    TEXT        NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL,
  is_deleted    BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at  TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_table_identity_records_history",
		SQL: `CREATE TABLE IF NOT EXISTS identity_records_history (
  ref_id        VARCHAR(28) NOT NULL,
  snapshot_at   TIMESTAMPTZ NOT NULL,
  uin           TEXT        NOT NULL,
  reg_id        TEXT        NOT NULL,
  document      BYTEA       NOT NULL,
  document_hash TEXT        NOT NULL,
  status_code   TEXT        NOT NULL,
  lang_code     TEXT        NOT NULL,
  created_by    TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL,
  updated_by    TEXT        NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL,
  is_deleted    BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at  TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (ref_id, snapshot_at)
);`,
	},
	{
		Name: "create_table_biometric_assets",
		SQL: `CREATE TABLE IF NOT EXISTS biometric_assets (
  ref_id       VARCHAR(28) NOT NULL REFERENCES identity_records (ref_id),
  asset_type   TEXT        NOT NULL,
  storage_path TEXT        NOT NULL,
  value        TEXT        NOT NULL,
  format       TEXT        NOT NULL,
  asset_hash   TEXT        NOT NULL,
  lang_code    TEXT        NOT NULL,
  created_by   TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL,
  updated_by   TEXT        NOT NULL,
  updated_at   TIMESTAMPTZ NOT NULL,
  is_deleted   BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (ref_id, storage_path)
);`,
	},
	{
		Name: "create_table_biometric_assets_history",
		SQL: `CREATE TABLE IF NOT EXISTS biometric_assets_history (
  ref_id       VARCHAR(28) NOT NULL,
  snapshot_at  TIMESTAMPTZ NOT NULL,
  asset_type   TEXT        NOT NULL,
  storage_path TEXT        NOT NULL,
  value        TEXT        NOT NULL,
  format       TEXT        NOT NULL,
  asset_hash   TEXT        NOT NULL,
  lang_code    TEXT        NOT NULL,
  created_by   TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL,
  updated_by   TEXT        NOT NULL,
  updated_at   TIMESTAMPTZ NOT NULL,
  is_deleted   BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (ref_id, storage_path, snapshot_at)
);`,
	},
	{
		Name: "create_table_document_assets",
		SQL: `CREATE TABLE IF NOT EXISTS document_assets (
  ref_id       VARCHAR(28) NOT NULL REFERENCES identity_records (ref_id),
  category     TEXT        NOT NULL,
  doc_type     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL,
  value        TEXT        NOT NULL,
  format       TEXT        NOT NULL,
  asset_hash   TEXT        NOT NULL,
  lang_code    TEXT        NOT NULL,
  created_by   TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL,
  updated_by   TEXT        NOT NULL,
  updated_at   TIMESTAMPTZ NOT NULL,
  is_deleted   BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (ref_id, storage_path)
);`,
	},
	{
		Name: "create_table_document_assets_history",
		SQL: `CREATE TABLE IF NOT EXISTS document_assets_history (
  ref_id       VARCHAR(28) NOT NULL,
  snapshot_at  TIMESTAMPTZ NOT NULL,
  category     TEXT        NOT NULL,
  doc_type     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL,
  value        TEXT        NOT NULL,
  format       TEXT        NOT NULL,
  asset_hash   TEXT        NOT NULL,
  lang_code    TEXT        NOT NULL,
  created_by   TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL,
  updated_by   TEXT        NOT NULL,
  updated_at   TIMESTAMPTZ NOT NULL,
  is_deleted   BOOLEAN     NOT NULL DEFAULT FALSE,
  effective_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (ref_id, storage_path, snapshot_at)
);`,
	},
	{
		Name: "create_index_identity_records_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_identity_records_status ON identity_records (status_code);`,
	},
	{
		Name: "create_index_identity_records_history_snapshot",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_identity_records_history_snapshot ON identity_records_history (snapshot_at);`,
	},
}

// EnsureMigrated checks whether the shard schema exists and runs the
// migration steps if it does not. It is called once per shard pool at startup.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, shardName string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"shard":     shardName,
	})

	var exists bool
	query := "SELECT to_regclass('public.identity_records') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"shard":         shardName,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"shard":       shardName,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"shard":            shardName,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"shard":            shardName,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"shard":       shardName,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
