package common

import (
	"database/sql"

	"github.com/apex/log"
)

// LogResult logs the outcome of a write query. When expectOne is set, a
// warning is emitted unless exactly one row was affected.
func LogResult(msgPrefix string, r sql.Result, err error, expectOne bool) {
	if err != nil {
		log.Errorf("%s: query failed: %v", msgPrefix, err)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("%s: failed to get status of db op: %v", msgPrefix, err)
		return
	}
	if expectOne && rows != 1 {
		log.Warnf("%s: expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
