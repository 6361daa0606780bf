package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"carehome-insights/common"
	"carehome-insights/models"
)

// UpsertHome inserts or refreshes a tracked home keyed by its CQC location.
// The location id is stored as NULL when empty so untracked homes do not
// collide on the unique index.
func (d *Database) UpsertHome(home *models.CareHome) error {
	result, err := d.db.Exec(`INSERT INTO care_homes
		(id, name, cqc_location_id, company_number, postcode, region, care_type, latitude, longitude)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name=?, company_number=?, postcode=?, region=?, care_type=?, latitude=?, longitude=?`,
		home.ID, home.Name, home.CQCLocationID, home.CompanyNumber, home.Postcode,
		home.Region, home.CareType, home.Latitude, home.Longitude,
		home.Name, home.CompanyNumber, home.Postcode, home.Region, home.CareType,
		home.Latitude, home.Longitude)
	common.LogResult("upsertHome", result, err, true)
	return err
}

// UpdateHomeLocation stores resolved coordinates for a home after a postcode
// lookup.
func (d *Database) UpdateHomeLocation(id string, latitude, longitude float64, region string) error {
	result, err := d.db.Exec(`UPDATE care_homes
		SET latitude = ?, longitude = ?, region = ?
		WHERE id = ?`, latitude, longitude, region, id)
	common.LogResult("updateHomeLocation", result, err, true)
	return err
}

// GetHome returns one home or sql.ErrNoRows.
func (d *Database) GetHome(id string) (*models.CareHome, error) {
	row := d.db.QueryRow(`SELECT id, name, COALESCE(cqc_location_id, ''), company_number, postcode,
		region, care_type, latitude, longitude, created_at, updated_at
		FROM care_homes WHERE id = ?`, id)
	return scanHome(row)
}

// GetHomeByLocationID returns the home tracked for a CQC location, or
// sql.ErrNoRows.
func (d *Database) GetHomeByLocationID(locationID string) (*models.CareHome, error) {
	row := d.db.QueryRow(`SELECT id, name, COALESCE(cqc_location_id, ''), company_number, postcode,
		region, care_type, latitude, longitude, created_at, updated_at
		FROM care_homes WHERE cqc_location_id = ?`, locationID)
	return scanHome(row)
}

func scanHome(row *sql.Row) (*models.CareHome, error) {
	var home models.CareHome
	err := row.Scan(&home.ID, &home.Name, &home.CQCLocationID, &home.CompanyNumber,
		&home.Postcode, &home.Region, &home.CareType, &home.Latitude, &home.Longitude,
		&home.CreatedAt, &home.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &home, nil
}

// ListHomes returns tracked homes, optionally filtered by region and by a
// minimum latest score. Homes never scored fail the score filter.
func (d *Database) ListHomes(region string, minScore float64) ([]models.CareHome, error) {
	query := `SELECT h.id, h.name, COALESCE(h.cqc_location_id, ''), h.company_number, h.postcode,
		h.region, h.care_type, h.latitude, h.longitude, h.created_at, h.updated_at
		FROM care_homes h`
	args := []interface{}{}
	conditions := []string{}
	if minScore > 0 {
		query += `
		INNER JOIN (
			SELECT home_id, MAX(seq) AS max_seq
			FROM score_snapshots GROUP BY home_id
		) m ON h.id = m.home_id
		INNER JOIN score_snapshots s ON s.seq = m.max_seq`
		conditions = append(conditions, "s.overall_score >= ?")
		args = append(args, minScore)
	}
	if region != "" {
		conditions = append(conditions, "h.region = ?")
		args = append(args, region)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY h.name"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list homes: %w", err)
	}
	defer rows.Close()

	var homes []models.CareHome
	for rows.Next() {
		var home models.CareHome
		if err := rows.Scan(&home.ID, &home.Name, &home.CQCLocationID, &home.CompanyNumber,
			&home.Postcode, &home.Region, &home.CareType, &home.Latitude, &home.Longitude,
			&home.CreatedAt, &home.UpdatedAt); err != nil {
			return nil, err
		}
		homes = append(homes, home)
	}
	return homes, rows.Err()
}

// ListStaleHomes returns up to limit homes whose latest score is older than
// staleBefore, never-scored homes first.
func (d *Database) ListStaleHomes(staleBefore time.Time, limit int) ([]models.CareHome, error) {
	rows, err := d.db.Query(`SELECT h.id, h.name, COALESCE(h.cqc_location_id, ''), h.company_number,
		h.postcode, h.region, h.care_type, h.latitude, h.longitude, h.created_at, h.updated_at
		FROM care_homes h
		LEFT JOIN (
			SELECT home_id, MAX(created_at) AS scored_at
			FROM score_snapshots GROUP BY home_id
		) s ON h.id = s.home_id
		WHERE s.scored_at IS NULL OR s.scored_at < ?
		ORDER BY s.scored_at IS NULL DESC, s.scored_at
		LIMIT ?`, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale homes: %w", err)
	}
	defer rows.Close()

	var homes []models.CareHome
	for rows.Next() {
		var home models.CareHome
		if err := rows.Scan(&home.ID, &home.Name, &home.CQCLocationID, &home.CompanyNumber,
			&home.Postcode, &home.Region, &home.CareType, &home.Latitude, &home.Longitude,
			&home.CreatedAt, &home.UpdatedAt); err != nil {
			return nil, err
		}
		homes = append(homes, home)
	}
	return homes, rows.Err()
}

// ListScoredHomes returns homes inside the viewport that have at least one
// score snapshot, the map aggregation input.
func (d *Database) ListScoredHomes(vp models.ViewPort) ([]models.ScoredHome, error) {
	rows, err := d.db.Query(`SELECT h.id, h.name, h.latitude, h.longitude, s.overall_score, s.category
		FROM care_homes h
		INNER JOIN (
			SELECT home_id, MAX(seq) AS max_seq
			FROM score_snapshots GROUP BY home_id
		) m ON h.id = m.home_id
		INNER JOIN score_snapshots s ON s.seq = m.max_seq
		WHERE h.latitude BETWEEN ? AND ? AND h.longitude BETWEEN ? AND ?`,
		vp.LatMin, vp.LatMax, vp.LonMin, vp.LonMax)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored homes: %w", err)
	}
	defer rows.Close()

	var homes []models.ScoredHome
	for rows.Next() {
		var home models.ScoredHome
		if err := rows.Scan(&home.ID, &home.Name, &home.Latitude, &home.Longitude,
			&home.Score, &home.Category); err != nil {
			return nil, err
		}
		homes = append(homes, home)
	}
	return homes, rows.Err()
}
