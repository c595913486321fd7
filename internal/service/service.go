package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
	"github.com/teataster/teataster/internal/repository/sqldb"
)

// PageSize is the fixed number of rows per search page.
const PageSize = 5

// maxCreateAttempts bounds retries of the whole creation transaction when
// two concurrent creations race on the per-user sequence number.
const maxCreateAttempts = 2

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	db       *sql.DB
	logger   *logrus.Logger
	Users    repository.UserRepository
	Tastings repository.TastingRepository
	Events   repository.EventRepository

	now func() time.Time
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger,
	users repository.UserRepository,
	tastings repository.TastingRepository,
	events repository.EventRepository,
) *Service {
	return &Service{
		db: db, logger: logger,
		Users: users, Tastings: tastings, Events: events,
		now: time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// EnsureUser retrieves the user record for a Telegram id, creating it with a
// zero timezone offset on first interaction.
func (s *Service) EnsureUser(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.Users.Get(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user %d: %w", telegramID, err)
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		ID:        telegramID,
		CreatedAt: s.now().UTC(),
	}
	user, err = s.Users.Create(ctx, user)
	if err != nil {
		// Two first messages racing is harmless; take the winner's row.
		if sqldb.IsUniqueViolation(err) {
			return s.Users.Get(ctx, telegramID)
		}
		return nil, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}
	s.logger.Infof("Created new user (id=%d)", telegramID)
	return user, nil
}

// SetTimezone stores a new UTC offset in minutes for the user, creating the
// user record if needed.
func (s *Service) SetTimezone(ctx context.Context, telegramID int64, offsetMin int) error {
	if _, err := s.EnsureUser(ctx, telegramID); err != nil {
		return err
	}
	if err := s.Users.SetTimezone(ctx, telegramID, offsetMin); err != nil {
		return fmt.Errorf("failed to update timezone for user %d: %w", telegramID, err)
	}
	return nil
}

// UserNowHM returns the user's current local time as "HH:MM", based on the
// stored timezone offset.
func (s *Service) UserNowHM(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.EnsureUser(ctx, telegramID)
	if err != nil {
		return "", err
	}
	return user.LocalNowHM(s.now()), nil
}

// CreateTasting persists a tasting with its infusions and photos atomically.
// Photo references beyond the cap are dropped. A uniqueness violation on
// (user_id, seq_no) retries the whole transaction once; a second failure is
// returned to the caller with no partial state written.
func (s *Service) CreateTasting(ctx context.Context, t *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
	if len(photoIDs) > models.MaxPhotos {
		photoIDs = photoIDs[:models.MaxPhotos]
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err := s.Tastings.CreateWithChildren(ctx, t, infusions, photoIDs)
		if err == nil {
			s.logger.WithFields(logrus.Fields{
				"user_id":   created.UserID,
				"seq_no":    created.SeqNo,
				"infusions": len(infusions),
				"photos":    len(photoIDs),
			}).Info("Tasting created")
			return created, nil
		}
		lastErr = err
		if !sqldb.IsUniqueViolation(err) {
			break
		}
		s.logger.WithFields(logrus.Fields{
			"user_id": t.UserID,
			"attempt": attempt,
		}).Warn("Sequence number race, retrying tasting creation")
	}
	return nil, fmt.Errorf("failed to create tasting: %w", lastErr)
}

// ResolveTasting looks a tasting up by "#<seq_no>" or by raw internal id,
// returning it only when it belongs to the requesting user.
func (s *Service) ResolveTasting(ctx context.Context, userID int64, token string) (*models.Tasting, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	if strings.HasPrefix(token, "#") {
		seqNo, err := strconv.Atoi(token[1:])
		if err != nil {
			return nil, nil
		}
		return s.Tastings.GetBySeqNo(ctx, userID, seqNo)
	}

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, nil
	}
	t, err := s.Tastings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, nil
	}
	return t, nil
}

// Card bundles everything needed to render one tasting.
type Card struct {
	Tasting    *models.Tasting
	Infusions  []*models.Infusion
	PhotoIDs   []string
	PhotoCount int
}

// GetCard loads a tasting with its infusions and photo references, verifying
// ownership. Returns nil when the record is missing or foreign.
func (s *Service) GetCard(ctx context.Context, id, userID int64) (*Card, error) {
	t, err := s.Tastings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, nil
	}

	infusions, err := s.Tastings.GetInfusions(ctx, id)
	if err != nil {
		return nil, err
	}
	photoIDs, err := s.Tastings.GetPhotoIDs(ctx, id, models.MaxPhotos)
	if err != nil {
		return nil, err
	}
	photoCount, err := s.Tastings.CountPhotos(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Card{Tasting: t, Infusions: infusions, PhotoIDs: photoIDs, PhotoCount: photoCount}, nil
}

// UpdateTastingField writes one editable column, scoped to the owning user.
// Returns false for missing or foreign records.
func (s *Service) UpdateTastingField(ctx context.Context, id, userID int64, column string, value any) (bool, error) {
	ok, err := s.Tastings.UpdateField(ctx, id, userID, column, value)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.WithFields(logrus.Fields{
			"tasting_id": id,
			"user_id":    userID,
			"column":     column,
		}).Info("Tasting field updated")
	}
	return ok, nil
}

// DeleteTasting removes the tasting and, via cascade, its infusions and
// photos. Returns false for missing or foreign records.
func (s *Service) DeleteTasting(ctx context.Context, id, userID int64) (bool, error) {
	ok, err := s.Tastings.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.WithFields(logrus.Fields{
			"tasting_id": id,
			"user_id":    userID,
		}).Info("Tasting deleted")
	}
	return ok, nil
}

// SearchPage returns one page of the user's tastings for the given filter,
// newest first, plus whether more pages exist.
func (s *Service) SearchPage(ctx context.Context, userID int64, filter repository.SearchFilter, beforeID *int64) ([]*models.Tasting, bool, error) {
	return s.Tastings.Page(ctx, userID, filter, beforeID, PageSize)
}

// DailyStats are the read-side aggregates over bot_events.
type DailyStats struct {
	DAU     int `json:"dau"`
	Started int `json:"started"`
	Saved   int `json:"saved"`
}

// StatsToday computes today's (UTC) active-user and funnel counts.
func (s *Service) StatsToday(ctx context.Context) (*DailyStats, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	dau, err := s.Events.CountDistinctUsers(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily users: %w", err)
	}
	started, err := s.Events.CountEvents(ctx, models.EventTastingStarted, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count started tastings: %w", err)
	}
	saved, err := s.Events.CountEvents(ctx, models.EventTastingSaved, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to count saved tastings: %w", err)
	}

	return &DailyStats{DAU: dau, Started: started, Saved: saved}, nil
}

// PingDB verifies database connectivity for /health and /healthz.
func (s *Service) PingDB(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
