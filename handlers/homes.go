package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carehome-insights/models"
	"carehome-insights/services/postcodes"
)

const maxScoreHistory = 100

// RegisterHome adds a home to the tracked set. The postcode is resolved to
// coordinates and a region; resolution failures other than an unknown
// postcode are tolerated so registration works while the lookup is down.
func (h *Handlers) RegisterHome(c *gin.Context) {
	var args models.RegisterHomeArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /homes call: %v", err)
		return
	}

	if !requireVersion(c, args.Version) {
		return
	}

	if args.Name == "" || args.Postcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and postcode are required"}) // 400
		return
	}

	home := models.CareHome{
		ID:            uuid.New().String(),
		Name:          args.Name,
		CQCLocationID: args.CQCLocationID,
		CompanyNumber: args.CompanyNumber,
		Postcode:      args.Postcode,
		CareType:      args.CareType,
	}

	// Re-registering a CQC location updates the existing home instead of
	// minting a second id for it.
	if args.CQCLocationID != "" {
		existing, err := h.db.GetHomeByLocationID(args.CQCLocationID)
		if err == nil {
			home.ID = existing.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			log.Errorf("Failed to look up home by location %s: %v", args.CQCLocationID, err)
			c.Status(http.StatusInternalServerError) // 500
			return
		}
	}

	if h.postcodes != nil {
		info, err := h.postcodes.Lookup(c.Request.Context(), args.Postcode)
		switch {
		case errors.Is(err, postcodes.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown postcode"}) // 400
			return
		case err != nil:
			log.Errorf("Postcode lookup failed for %s: %v", args.Postcode, err)
		default:
			home.Latitude = info.Latitude
			home.Longitude = info.Longitude
			home.Region = info.Region
		}
	}

	if err := h.db.UpsertHome(&home); err != nil {
		log.Errorf("Failed to register home %s: %v", home.Name, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, models.RegisterHomeResponse{ID: home.ID}) // 200
}

// ListHomes returns tracked homes, optionally filtered by ?region= and
// ?min_score=.
func (h *Handlers) ListHomes(c *gin.Context) {
	var minScore float64
	if raw := c.Query("min_score"); raw != "" {
		var err error
		minScore, err = strconv.ParseFloat(raw, 64)
		if err != nil || minScore < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'min_score' parameter. Must be a non-negative number."}) // 400
			return
		}
	}

	homes, err := h.db.ListHomes(c.Query("region"), minScore)
	if err != nil {
		log.Errorf("Failed to list homes: %v", err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, homes) // 200
}

// GetHome returns one home with its latest score attached.
func (h *Handlers) GetHome(c *gin.Context) {
	id := c.Param("id")

	home, err := h.db.GetHome(id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Home not found"}) // 404
		return
	}
	if err != nil {
		log.Errorf("Failed to get home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	detail := models.HomeDetail{Home: *home}
	score, scoredAt, err := h.db.GetLatestScore(id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Errorf("Failed to get latest score for home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}
	detail.LatestScore = score
	detail.ScoredAt = scoredAt

	c.IndentedJSON(http.StatusOK, detail) // 200
}

// GetHomeScore returns the latest stored score for a home.
func (h *Handlers) GetHomeScore(c *gin.Context) {
	id := c.Param("id")

	score, _, err := h.db.GetLatestScore(id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No score computed yet"}) // 404
		return
	}
	if err != nil {
		log.Errorf("Failed to get latest score for home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, score) // 200
}

// GetScoreHistory returns stored score snapshots, newest first.
func (h *Handlers) GetScoreHistory(c *gin.Context) {
	id := c.Param("id")

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."}) // 400
			return
		}
		limit = parsed
	}
	if limit > maxScoreHistory {
		limit = maxScoreHistory
	}

	history, err := h.db.GetScoreHistory(id, limit)
	if err != nil {
		log.Errorf("Failed to get score history for home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, history) // 200
}

// IngestReviews stores a batch of scraped employee reviews for a home.
func (h *Handlers) IngestReviews(c *gin.Context) {
	id := c.Param("id")

	var args models.ReviewBatchArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /homes/:id/reviews call: %v", err)
		return
	}

	if !requireVersion(c, args.Version) {
		return
	}

	if len(args.Reviews) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reviews must not be empty"}) // 400
		return
	}

	if _, err := h.db.GetHome(id); errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Home not found"}) // 404
		return
	} else if err != nil {
		log.Errorf("Failed to get home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	batchID := uuid.New().String()
	inserted, err := h.db.InsertReviewBatch(id, batchID, args.Reviews)
	if err != nil {
		log.Errorf("Failed to insert review batch %s for home %s: %v", batchID, id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	c.IndentedJSON(http.StatusOK, models.ReviewBatchResponse{ // 200
		BatchID:  batchID,
		Inserted: inserted,
	})
}

// RefreshHome queues an immediate rescore of one home.
func (h *Handlers) RefreshHome(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.db.GetHome(id); errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Home not found"}) // 404
		return
	} else if err != nil {
		log.Errorf("Failed to get home %s: %v", id, err)
		c.Status(http.StatusInternalServerError) // 500
		return
	}

	if !h.refresher.RequestRefresh(id) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Refresh queue is full"}) // 503
		return
	}

	c.IndentedJSON(http.StatusAccepted, models.RefreshResponse{ // 202
		JobID:  uuid.New().String(),
		Status: "queued",
	})
}
