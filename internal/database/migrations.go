package database

import (
	"fmt"
	"strings"
)

var schema = []struct {
	table string
	ddl   string
}{
	{"scrape_sessions", `
		CREATE TABLE IF NOT EXISTS scrape_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			source TEXT,
			mode TEXT,
			listings_found INTEGER DEFAULT 0
		);
	`},
	{"properties", `
		CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			price INTEGER,
			location TEXT DEFAULT 'Lyon',
			arrondissement TEXT,
			size REAL,
			rooms INTEGER,
			dpe TEXT,
			description TEXT,
			price_per_m2 REAL,
			url TEXT,
			first_seen DATETIME,
			last_seen DATETIME,
			session_id INTEGER,
			is_active INTEGER DEFAULT 1
		);
	`},
	{"price_history", `
		CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER,
			price INTEGER,
			price_per_m2 REAL,
			recorded_at DATETIME,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		);
	`},
	{"analyses", `
		CREATE TABLE IF NOT EXISTS analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			property_id INTEGER,
			score REAL,
			roi_5yr REAL,
			is_undervalued INTEGER DEFAULT 0,
			summary TEXT,
			analyzed_at DATETIME,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		);
	`},
}

// Columns missing from databases created by older versions.
var legacyColumns = []struct {
	name string
	decl string
}{
	{"arrondissement", "TEXT"},
	{"rooms", "INTEGER"},
	{"url", "TEXT"},
	{"first_seen", "DATETIME"},
	{"last_seen", "DATETIME"},
	{"session_id", "INTEGER"},
	{"is_active", "INTEGER DEFAULT 1"},
}

// RunMigrations creates the tables and upgrades legacy property tables.
func (d *Database) RunMigrations() error {
	for _, t := range schema {
		if _, err := d.db.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.table, err)
		}
	}

	for _, col := range legacyColumns {
		_, err := d.db.Exec(fmt.Sprintf("ALTER TABLE properties ADD COLUMN %s %s;", col.name, col.decl))
		if err != nil && !strings.HasPrefix(err.Error(), "duplicate column name") {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}

	_, err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_identity
		ON properties(title, arrondissement);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_price_history_property
		ON price_history(property_id, recorded_at);
	`)
	return err
}
