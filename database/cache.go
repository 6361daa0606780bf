package database

import (
	"database/sql"
	"time"

	"carehome-insights/common"
	"carehome-insights/models"

	"github.com/apex/log"
)

// GetCachedPostcode returns a cached postcode lookup, or nil when the entry
// is missing or older than the configured TTL.
func (d *Database) GetCachedPostcode(postcode string) (*models.PostcodeInfo, error) {
	cutoff := time.Now().Add(-d.postcodeTTL)
	var info models.PostcodeInfo
	err := d.db.QueryRow(`SELECT postcode, latitude, longitude, region, admin_district
		FROM postcode_cache WHERE postcode = ? AND cached_at > ?`, postcode, cutoff).
		Scan(&info.Postcode, &info.Latitude, &info.Longitude, &info.Region, &info.AdminDistrict)
	if err == sql.ErrNoRows {
		log.Infof("Postcode cache miss for %s", postcode)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Infof("Postcode cache hit for %s", postcode)
	return &info, nil
}

// SavePostcode stores a postcode lookup result, refreshing cached_at on
// duplicates.
func (d *Database) SavePostcode(info models.PostcodeInfo) error {
	result, err := d.db.Exec(`INSERT INTO postcode_cache
		(postcode, latitude, longitude, region, admin_district, cached_at)
		VALUES (?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE latitude=?, longitude=?, region=?, admin_district=?, cached_at=NOW()`,
		info.Postcode, info.Latitude, info.Longitude, info.Region, info.AdminDistrict,
		info.Latitude, info.Longitude, info.Region, info.AdminDistrict)
	common.LogResult("savePostcode", result, err, true)
	return err
}

// GetCachedCQCResponse returns the raw cached CQC response for a location,
// or nil when missing or expired.
func (d *Database) GetCachedCQCResponse(locationID string) ([]byte, error) {
	cutoff := time.Now().Add(-d.cqcTTL)
	var response []byte
	err := d.db.QueryRow(`SELECT response FROM cqc_cache
		WHERE location_id = ? AND cached_at > ?`, locationID, cutoff).Scan(&response)
	if err == sql.ErrNoRows {
		log.Infof("CQC cache miss for %s", locationID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Infof("CQC cache hit for %s", locationID)
	return response, nil
}

// SaveCQCResponse stores a raw CQC response for a location.
func (d *Database) SaveCQCResponse(locationID string, response []byte) error {
	result, err := d.db.Exec(`INSERT INTO cqc_cache (location_id, response, cached_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE response=?, cached_at=NOW()`,
		locationID, response, response)
	common.LogResult("saveCQCResponse", result, err, true)
	return err
}
