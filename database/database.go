// Package database owns the MySQL schema and all queries against it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carehome-insights/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// Database wraps the MySQL connection pool.
type Database struct {
	db          *sql.DB
	cqcTTL      time.Duration
	postcodeTTL time.Duration
}

// NewDatabase opens the connection pool and waits for the database to accept
// pings, retrying with exponential backoff.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	deadline := time.Now().Add(60 * time.Second)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database ping timeout: %w", pingErr)
		}
		log.Infof("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	return &Database{
		db:          db,
		cqcTTL:      cfg.CQCCacheTTL,
		postcodeTTL: cfg.PostcodeCacheTTL,
	}, nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// CreateTables creates all tables used by the service if they do not exist.
func (d *Database) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS care_homes (
			id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			cqc_location_id VARCHAR(32) NULL,
			company_number VARCHAR(16) DEFAULT '',
			postcode VARCHAR(16) NOT NULL,
			region VARCHAR(64) DEFAULT '',
			care_type VARCHAR(32) NOT NULL DEFAULT 'RESIDENTIAL',
			latitude FLOAT NOT NULL DEFAULT 0.0,
			longitude FLOAT NOT NULL DEFAULT 0.0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE INDEX cqc_location_index (cqc_location_id),
			INDEX region_index (region),
			INDEX position_index (latitude, longitude)
		)`,
		`CREATE TABLE IF NOT EXISTS employee_reviews (
			seq INT NOT NULL AUTO_INCREMENT,
			home_id VARCHAR(36) NOT NULL,
			source VARCHAR(32) NOT NULL,
			rating FLOAT NOT NULL DEFAULT 0.0,
			sentiment VARCHAR(16) NOT NULL,
			review_text TEXT,
			review_date VARCHAR(32) DEFAULT '',
			author VARCHAR(255) DEFAULT '',
			batch_id VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (seq),
			INDEX home_index (home_id)
		)`,
		`CREATE TABLE IF NOT EXISTS regulator_snapshots (
			seq INT NOT NULL AUTO_INCREMENT,
			home_id VARCHAR(36) NOT NULL,
			well_led VARCHAR(32) DEFAULT '',
			effective VARCHAR(32) DEFAULT '',
			last_inspection DATETIME NULL,
			sentiment_positive INT NOT NULL DEFAULT 0,
			sentiment_neutral INT NOT NULL DEFAULT 0,
			sentiment_negative INT NOT NULL DEFAULT 0,
			sentiment_score FLOAT NOT NULL DEFAULT 0.0,
			fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (seq),
			INDEX home_index (home_id)
		)`,
		`CREATE TABLE IF NOT EXISTS score_snapshots (
			seq INT NOT NULL AUTO_INCREMENT,
			home_id VARCHAR(36) NOT NULL,
			overall_score FLOAT NOT NULL,
			category VARCHAR(16) NOT NULL,
			confidence VARCHAR(8) NOT NULL,
			employee_sentiment_score FLOAT NULL,
			review_count INT NOT NULL DEFAULT 0,
			has_insufficient_data BOOLEAN DEFAULT FALSE,
			score_json TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (seq),
			INDEX home_index (home_id),
			INDEX created_index (created_at),
			INDEX category_index (category)
		)`,
		`CREATE TABLE IF NOT EXISTS postcode_cache (
			postcode VARCHAR(16) NOT NULL,
			latitude FLOAT NOT NULL,
			longitude FLOAT NOT NULL,
			region VARCHAR(64) DEFAULT '',
			admin_district VARCHAR(64) DEFAULT '',
			cached_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (postcode)
		)`,
		`CREATE TABLE IF NOT EXISTS cqc_cache (
			location_id VARCHAR(32) NOT NULL,
			response TEXT NOT NULL,
			cached_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (location_id)
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Info("Database tables created/verified")
	return nil
}
