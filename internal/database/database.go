package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nexlyon/server/internal/models"
)

type Database struct {
	db  *sql.DB
	now func() time.Time
}

func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps SQLite writers from the archive and the
	// scraper serialized.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db, now: time.Now}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateSession records the start of a scrape and returns its id.
func (d *Database) CreateSession(source, mode string) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO scrape_sessions (timestamp, source, mode) VALUES (?, ?, ?)",
		d.now(), source, mode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create scrape session: %w", err)
	}
	return res.LastInsertId()
}

func (d *Database) UpdateSessionCount(sessionID int64, count int) error {
	_, err := d.db.Exec("UPDATE scrape_sessions SET listings_found = ? WHERE id = ?", count, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session %d: %w", sessionID, err)
	}
	return nil
}

// UpsertProperty inserts a listing or refreshes the row with the same title
// and arrondissement. A price_history row is written on insert and whenever
// the price changes. It reports whether the listing was new.
func (d *Database) UpsertProperty(p models.Property, sessionID int64) (int64, bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := d.now()
	pricePerM2 := 0.0
	if p.Size != 0 {
		pricePerM2 = float64(p.Price) / p.Size
	}

	var id int64
	var oldPrice sql.NullInt64
	err = tx.QueryRow(
		"SELECT id, price FROM properties WHERE title = ? AND arrondissement = ?",
		p.Title, p.Arrondissement,
	).Scan(&id, &oldPrice)

	isNew := false
	switch {
	case err == sql.ErrNoRows:
		isNew = true
		location := p.Location
		if location == "" {
			location = "Lyon"
		}
		res, err := tx.Exec(`
			INSERT INTO properties
			(title, price, location, arrondissement, size, rooms, dpe,
			 description, price_per_m2, url, first_seen, last_seen, session_id, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`,
			p.Title, p.Price, location, p.Arrondissement, p.Size, p.Rooms, p.DPE,
			p.Description, pricePerM2, p.URL, now, now, sessionID,
		)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert property: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, false, err
		}
		if err := insertPricePoint(tx, id, p.Price, pricePerM2, now); err != nil {
			return 0, false, err
		}

	case err != nil:
		return 0, false, fmt.Errorf("failed to look up property: %w", err)

	default:
		_, err = tx.Exec("UPDATE properties SET last_seen = ?, session_id = ? WHERE id = ?", now, sessionID, id)
		if err != nil {
			return 0, false, fmt.Errorf("failed to refresh property %d: %w", id, err)
		}
		if !oldPrice.Valid || oldPrice.Int64 != int64(p.Price) {
			_, err = tx.Exec("UPDATE properties SET price = ?, price_per_m2 = ? WHERE id = ?", p.Price, pricePerM2, id)
			if err != nil {
				return 0, false, fmt.Errorf("failed to update price of property %d: %w", id, err)
			}
			if err := insertPricePoint(tx, id, p.Price, pricePerM2, now); err != nil {
				return 0, false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, isNew, nil
}

func insertPricePoint(tx *sql.Tx, propertyID int64, price int, pricePerM2 float64, at time.Time) error {
	_, err := tx.Exec(
		"INSERT INTO price_history (property_id, price, price_per_m2, recorded_at) VALUES (?, ?, ?, ?)",
		propertyID, price, pricePerM2, at,
	)
	if err != nil {
		return fmt.Errorf("failed to record price of property %d: %w", propertyID, err)
	}
	return nil
}

// GetActiveProperties returns active listings ordered by arrondissement and
// price per m².
func (d *Database) GetActiveProperties() ([]models.Property, error) {
	rows, err := d.db.Query(`
		SELECT
			id,
			COALESCE(title, ''),
			COALESCE(price, 0),
			COALESCE(location, ''),
			COALESCE(arrondissement, ''),
			COALESCE(size, 0),
			COALESCE(rooms, 0),
			COALESCE(dpe, ''),
			COALESCE(description, ''),
			COALESCE(price_per_m2, 0),
			COALESCE(url, ''),
			first_seen,
			last_seen,
			COALESCE(session_id, 0)
		FROM properties
		WHERE is_active = 1
		ORDER BY arrondissement, price_per_m2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		var firstSeen, lastSeen sql.NullTime

		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Price,
			&p.Location,
			&p.Arrondissement,
			&p.Size,
			&p.Rooms,
			&p.DPE,
			&p.Description,
			&p.PricePerM2,
			&p.URL,
			&firstSeen,
			&lastSeen,
			&p.SessionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}

		// Handle nullable timestamps
		if firstSeen.Valid {
			p.FirstSeen = firstSeen.Time
		}
		if lastSeen.Valid {
			p.LastSeen = lastSeen.Time
		}
		p.IsActive = true

		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (d *Database) GetPriceHistory(propertyID int64) ([]models.PricePoint, error) {
	rows, err := d.db.Query(`
		SELECT id, property_id, COALESCE(price, 0), COALESCE(price_per_m2, 0), recorded_at
		FROM price_history
		WHERE property_id = ?
		ORDER BY recorded_at
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	history := []models.PricePoint{}
	for rows.Next() {
		var pp models.PricePoint
		var recordedAt sql.NullTime
		if err := rows.Scan(&pp.ID, &pp.PropertyID, &pp.Price, &pp.PricePerM2, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		pp.RecordedAt = recordedAt.Time
		history = append(history, pp)
	}
	return history, rows.Err()
}

// GetSessionStats returns the number of scrape sessions and the timestamp
// of the earliest one.
func (d *Database) GetSessionStats() (models.SessionStats, error) {
	var stats models.SessionStats
	if err := d.db.QueryRow("SELECT COUNT(*) FROM scrape_sessions").Scan(&stats.Count); err != nil {
		return stats, fmt.Errorf("failed to count sessions: %w", err)
	}
	if stats.Count == 0 {
		return stats, nil
	}

	var first time.Time
	err := d.db.QueryRow("SELECT timestamp FROM scrape_sessions ORDER BY timestamp LIMIT 1").Scan(&first)
	if err != nil {
		return stats, fmt.Errorf("failed to read first session: %w", err)
	}
	stats.First = &first
	return stats, nil
}

// GetAnalysisHistory returns the archived analyses of one property, oldest
// first.
func (d *Database) GetAnalysisHistory(propertyID int64) ([]models.AnalysisRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, property_id, COALESCE(score, 0), COALESCE(roi_5yr, 0),
			COALESCE(is_undervalued, 0), COALESCE(summary, ''), analyzed_at
		FROM analyses
		WHERE property_id = ?
		ORDER BY analyzed_at, id
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	records := []models.AnalysisRecord{}
	for rows.Next() {
		var r models.AnalysisRecord
		var analyzedAt sql.NullTime
		err := rows.Scan(&r.ID, &r.PropertyID, &r.Score, &r.ROI5yr, &r.IsUndervalued, &r.Summary, &analyzedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		r.AnalyzedAt = analyzedAt.Time
		records = append(records, r)
	}
	return records, rows.Err()
}
