package repository

import (
	"context"
	"time"

	"github.com/teataster/teataster/internal/models"
)

// SearchKind selects the single dimension a tasting search filters on.
type SearchKind string

const (
	SearchLast   SearchKind = "last"
	SearchName   SearchKind = "name"
	SearchCat    SearchKind = "cat"
	SearchYear   SearchKind = "year"
	SearchRating SearchKind = "rating"
)

// SearchFilter is one filter dimension plus its value. SearchLast ignores
// the value.
type SearchFilter struct {
	Kind  SearchKind
	Value string
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	SetTimezone(ctx context.Context, id int64, offsetMin int) error
}

// TastingRepository defines the interface for tasting data operations.
// CreateWithChildren persists a tasting together with its infusions and
// photos in one transaction, allocating the per-user sequence number inside
// that transaction.
type TastingRepository interface {
	CreateWithChildren(ctx context.Context, t *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error)
	GetByID(ctx context.Context, id int64) (*models.Tasting, error)
	GetBySeqNo(ctx context.Context, userID int64, seqNo int) (*models.Tasting, error)
	GetInfusions(ctx context.Context, tastingID int64) ([]*models.Infusion, error)
	GetPhotoIDs(ctx context.Context, tastingID int64, limit int) ([]string, error)
	CountPhotos(ctx context.Context, tastingID int64) (int, error)
	UpdateField(ctx context.Context, id, userID int64, column string, value any) (bool, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	Page(ctx context.Context, userID int64, filter SearchFilter, beforeID *int64, pageSize int) ([]*models.Tasting, bool, error)
}

// EventRepository defines the interface for the append-only analytics log.
type EventRepository interface {
	Insert(ctx context.Context, ev *models.BotEvent) error
	CountDistinctUsers(ctx context.Context, from, to time.Time) (int, error)
	CountEvents(ctx context.Context, event string, from, to time.Time) (int, error)
}
