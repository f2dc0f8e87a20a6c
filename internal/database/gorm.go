package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gorm opens a gorm handle sharing this database's connection pool.
func (d *Database) Gorm() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{Conn: d.db}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}
