// Package refresher rescores tracked homes on a schedule and fans results
// out to the event stream.
package refresher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"carehome-insights/config"
	"carehome-insights/metrics"
	"carehome-insights/models"
	"carehome-insights/rabbitmq"
	"carehome-insights/scoring"
	"carehome-insights/websocket"
)

// Store is the database surface the refresher needs.
type Store interface {
	GetHome(id string) (*models.CareHome, error)
	ListStaleHomes(staleBefore time.Time, limit int) ([]models.CareHome, error)
	GetReviews(homeID string) ([]scoring.EmployeeReview, error)
	InsertRegulatorSnapshot(homeID string, rating scoring.RegulatorRating) error
	InsertScoreSnapshot(homeID string, score scoring.StaffQualityScore) error
	GetLatestRegulatorSnapshot(homeID string) (*scoring.RegulatorRating, error)
}

// RatingSource provides the current regulator rating for a CQC location.
type RatingSource interface {
	GetRating(ctx context.Context, locationID string) (scoring.RegulatorRating, error)
}

// Service periodically rescores homes whose latest snapshot went stale and
// serves manual refresh requests from the API.
type Service struct {
	config  *config.Config
	db      Store
	ratings RatingSource
	scorer  *scoring.Scorer

	publisher *rabbitmq.Publisher
	hub       *websocket.Hub

	refreshChan chan string
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewService creates a new refresher service
func NewService(cfg *config.Config, db Store, ratings RatingSource, publisher *rabbitmq.Publisher, hub *websocket.Hub) *Service {
	return &Service{
		config:      cfg,
		db:          db,
		ratings:     ratings,
		scorer:      scoring.NewScorer(),
		publisher:   publisher,
		hub:         hub,
		refreshChan: make(chan string, 64),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the refresh loop
func (s *Service) Start() {
	log.Println("Starting score refresher...")
	s.wg.Add(1)
	go s.refreshLoop()
}

// Stop stops the refresh loop and waits for the in-flight cycle
func (s *Service) Stop() {
	log.Println("Stopping score refresher...")
	close(s.stopChan)
	s.wg.Wait()
}

// RequestRefresh queues a manual rescore for one home. It reports false
// when the queue is full.
func (s *Service) RequestRefresh(homeID string) bool {
	select {
	case s.refreshChan <- homeID:
		metrics.RefreshQueueDepth.Set(float64(len(s.refreshChan)))
		return true
	default:
		return false
	}
}

func (s *Service) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case homeID := <-s.refreshChan:
			metrics.RefreshQueueDepth.Set(float64(len(s.refreshChan)))
			if err := s.RefreshHome(context.Background(), homeID); err != nil {
				log.Printf("Manual rescore of home %s failed: %v", homeID, err)
			}
		case <-ticker.C:
			if err := s.refreshStale(context.Background()); err != nil {
				log.Printf("Refresh cycle failed: %v", err)
			}
		}
	}
}

func (s *Service) refreshStale(ctx context.Context) error {
	staleBefore := time.Now().Add(-s.config.RefreshStaleAfter)
	homes, err := s.db.ListStaleHomes(staleBefore, s.config.RefreshBatchSize)
	if err != nil {
		return err
	}
	if len(homes) == 0 {
		return nil
	}

	log.Printf("Rescoring %d stale homes", len(homes))
	for i := range homes {
		if err := s.refreshOne(ctx, &homes[i]); err != nil {
			log.Printf("Failed to rescore home %s (%s): %v", homes[i].ID, homes[i].Name, err)
		}
	}
	return nil
}

// RefreshHome rescores a single home right away.
func (s *Service) RefreshHome(ctx context.Context, homeID string) error {
	home, err := s.db.GetHome(homeID)
	if err != nil {
		return fmt.Errorf("failed to load home %s: %w", homeID, err)
	}
	return s.refreshOne(ctx, home)
}

func (s *Service) refreshOne(ctx context.Context, home *models.CareHome) error {
	start := time.Now()

	rating := s.currentRating(ctx, home)

	reviews, err := s.db.GetReviews(home.ID)
	if err != nil {
		metrics.ScoresComputedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	score := s.scorer.Score(rating, reviews)

	if err := s.db.InsertScoreSnapshot(home.ID, score); err != nil {
		metrics.ScoresComputedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to store score: %w", err)
	}

	metrics.ScoresComputedTotal.WithLabelValues("ok").Inc()
	metrics.ScoringDurationSeconds.Observe(time.Since(start).Seconds())

	update := models.ScoreUpdate{
		Type:         rabbitmq.RoutingKeyScoreUpdated,
		HomeID:       home.ID,
		Name:         home.Name,
		OverallScore: score.OverallScore,
		Category:     score.Category,
		Confidence:   score.Confidence,
		Timestamp:    time.Now(),
	}
	if err := s.publisher.PublishScoreUpdate(update); err != nil {
		log.Printf("Failed to publish score update for home %s: %v", home.ID, err)
	}
	if s.hub != nil {
		s.hub.BroadcastScoreUpdate(update)
	}

	log.Printf("Rescored home %s (%s): %.1f %s", home.ID, home.Name, score.OverallScore, score.Category)
	return nil
}

// currentRating fetches the regulator rating, falling back to the stored
// snapshot when the upstream call fails. Homes without a CQC location and
// homes with no stored snapshot score against an empty rating.
func (s *Service) currentRating(ctx context.Context, home *models.CareHome) scoring.RegulatorRating {
	if home.CQCLocationID == "" || s.ratings == nil {
		return scoring.RegulatorRating{}
	}

	rating, err := s.ratings.GetRating(ctx, home.CQCLocationID)
	if err != nil {
		log.Printf("CQC fetch for home %s failed, using stored snapshot: %v", home.ID, err)
		stored, dbErr := s.db.GetLatestRegulatorSnapshot(home.ID)
		if dbErr != nil || stored == nil {
			return scoring.RegulatorRating{}
		}
		return *stored
	}

	if err := s.db.InsertRegulatorSnapshot(home.ID, rating); err != nil {
		log.Printf("Failed to store regulator snapshot for home %s: %v", home.ID, err)
	}
	return rating
}
