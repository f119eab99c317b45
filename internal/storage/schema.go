package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			acknowledged_level INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

			FOREIGN KEY(user_id) REFERENCES users(id),
			UNIQUE(user_id, name)
		);`,
		// Append-only. No UPDATE or DELETE statement in this package touches
		// xp_grants except the user-deletion cascade.
		`CREATE TABLE IF NOT EXISTS xp_grants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			stat_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			source_type TEXT NOT NULL,
			source_id INTEGER,
			reason TEXT,
			created_at DATETIME NOT NULL,

			FOREIGN KEY(user_id) REFERENCES users(id),
			FOREIGN KEY(stat_id) REFERENCES stats(id)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			source_type TEXT NOT NULL,
			quest_id INTEGER,
			stat_id INTEGER,
			estimated_xp INTEGER,
			family_member_id INTEGER,
			status TEXT NOT NULL DEFAULT 'pending',
			archived INTEGER NOT NULL DEFAULT 0,
			feedback TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,

			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS quests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			goal TEXT,
			start_date DATETIME,
			end_date DATETIME,
			influences_generation INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			entry_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			processing INTEGER NOT NULL DEFAULT 0,
			initial_message TEXT NOT NULL DEFAULT '',
			summary TEXT,
			synopsis TEXT,
			title TEXT,
			content_tags TEXT,
			tone_tags TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,

			FOREIGN KEY(user_id) REFERENCES users(id),
			UNIQUE(user_id, entry_date)
		);`,
		`CREATE TABLE IF NOT EXISTS journal_turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

			FOREIGN KEY(entry_id) REFERENCES journal_entries(id)
		);`,
		`CREATE TABLE IF NOT EXISTS family_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			relationship TEXT NOT NULL DEFAULT '',
			likes TEXT,
			dislikes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_xp_grants_stat_created ON xp_grants(stat_id, created_at, id);`,
		`CREATE INDEX IF NOT EXISTS idx_xp_grants_user_created ON xp_grants(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_family_member ON tasks(family_member_id);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_date ON journal_entries(user_id, entry_date);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_turns_entry ON journal_turns(entry_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
