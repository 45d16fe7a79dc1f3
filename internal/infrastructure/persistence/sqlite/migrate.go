package sqlite

import (
	"fmt"

	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered schema history. Entries are append-only; never
// edit an applied version.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_companies_and_users",
		SQL: `
			CREATE TABLE IF NOT EXISTS companies (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				base_currency TEXT NOT NULL DEFAULT 'USD',
				sla_hours INTEGER NOT NULL DEFAULT 0,
				urgent_pending_hours INTEGER NOT NULL DEFAULT 0,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				company_id INTEGER NOT NULL,
				team_id INTEGER NOT NULL DEFAULT 0,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				role TEXT NOT NULL DEFAULT 'employee',
				is_active BOOLEAN NOT NULL DEFAULT 1,
				FOREIGN KEY (company_id) REFERENCES companies(id)
			);

			CREATE INDEX IF NOT EXISTS idx_users_roster
				ON users(company_id, role, is_active);
		`,
	},
	{
		Version: 2,
		Name:    "create_approval_rules",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_rules (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				company_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				min_amount REAL NOT NULL DEFAULT 0,
				max_amount REAL,
				sequence TEXT NOT NULL,
				percentage_required INTEGER NOT NULL DEFAULT 100,
				admin_override BOOLEAN NOT NULL DEFAULT 0,
				urgent_bypass BOOLEAN NOT NULL DEFAULT 0,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (company_id) REFERENCES companies(id)
			);

			CREATE INDEX IF NOT EXISTS idx_rules_company_active
				ON approval_rules(company_id, is_active);
		`,
	},
	{
		Version: 3,
		Name:    "create_expenses",
		SQL: `
			CREATE TABLE IF NOT EXISTS expenses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				company_id INTEGER NOT NULL,
				submitter_id INTEGER NOT NULL,
				team_id INTEGER NOT NULL DEFAULT 0,
				category TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				amount REAL NOT NULL,
				currency TEXT NOT NULL DEFAULT '',
				amount_in_base REAL NOT NULL,
				urgent BOOLEAN NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'PENDING',
				receipt_path TEXT NOT NULL DEFAULT '',
				receipt_data TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (company_id) REFERENCES companies(id)
			);

			CREATE INDEX IF NOT EXISTS idx_expenses_company
				ON expenses(company_id, created_at);
		`,
	},
	{
		Version: 4,
		Name:    "create_workflow_instances",
		SQL: `
			CREATE TABLE IF NOT EXISTS workflow_instances (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				expense_id INTEGER NOT NULL UNIQUE,
				company_id INTEGER NOT NULL,
				team_id INTEGER NOT NULL DEFAULT 0,
				rule_id INTEGER NOT NULL DEFAULT 0,
				rule_name TEXT NOT NULL DEFAULT '',
				sequence TEXT NOT NULL,
				percentage_required INTEGER NOT NULL DEFAULT 100,
				admin_override BOOLEAN NOT NULL DEFAULT 0,
				urgent_bypass BOOLEAN NOT NULL DEFAULT 0,
				current_stage_index INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'PENDING',
				urgent BOOLEAN NOT NULL DEFAULT 0,
				escalated BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (expense_id) REFERENCES expenses(id)
			);

			CREATE INDEX IF NOT EXISTS idx_instances_status
				ON workflow_instances(status);
		`,
	},
	{
		Version: 5,
		Name:    "create_approval_records",
		SQL: `
			CREATE TABLE IF NOT EXISTS approval_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				instance_id INTEGER NOT NULL,
				stage_index INTEGER NOT NULL,
				approver_id INTEGER NOT NULL,
				role_acted_as TEXT NOT NULL,
				decision TEXT NOT NULL,
				comment TEXT NOT NULL DEFAULT '',
				decided_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (instance_id) REFERENCES workflow_instances(id),
				UNIQUE (instance_id, stage_index, approver_id)
			);

			CREATE INDEX IF NOT EXISTS idx_records_instance
				ON approval_records(instance_id, stage_index);
		`,
	},
}

// Migrate applies all pending migrations in order.
func Migrate(db *DB, logger *zap.Logger) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			logger.Debug("Skipping applied migration",
				zap.Int("version", migration.Version),
				zap.String("name", migration.Name))
			continue
		}

		logger.Info("Applying migration",
			zap.Int("version", migration.Version),
			zap.String("name", migration.Name))

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func appliedMigrations(db *DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
