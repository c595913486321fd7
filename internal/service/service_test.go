package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ---------------------------------------------------------------------------
// Stub repositories
// ---------------------------------------------------------------------------

type stubUsers struct {
	getFunc    func(ctx context.Context, id int64) (*models.User, error)
	createFunc func(ctx context.Context, user *models.User) (*models.User, error)
	setTzFunc  func(ctx context.Context, id int64, offsetMin int) error
}

func (s *stubUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.getFunc(ctx, id)
}

func (s *stubUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return s.createFunc(ctx, user)
}

func (s *stubUsers) SetTimezone(ctx context.Context, id int64, offsetMin int) error {
	return s.setTzFunc(ctx, id, offsetMin)
}

type stubTastings struct {
	repository.TastingRepository

	createFunc   func(ctx context.Context, t *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error)
	getByIDFunc  func(ctx context.Context, id int64) (*models.Tasting, error)
	getBySeqFunc func(ctx context.Context, userID int64, seqNo int) (*models.Tasting, error)
}

func (s *stubTastings) CreateWithChildren(ctx context.Context, t *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
	return s.createFunc(ctx, t, infusions, photoIDs)
}

func (s *stubTastings) GetByID(ctx context.Context, id int64) (*models.Tasting, error) {
	return s.getByIDFunc(ctx, id)
}

func (s *stubTastings) GetBySeqNo(ctx context.Context, userID int64, seqNo int) (*models.Tasting, error) {
	return s.getBySeqFunc(ctx, userID, seqNo)
}

type stubEvents struct {
	repository.EventRepository

	distinctFunc func(ctx context.Context, from, to time.Time) (int, error)
	countFunc    func(ctx context.Context, event string, from, to time.Time) (int, error)
}

func (s *stubEvents) CountDistinctUsers(ctx context.Context, from, to time.Time) (int, error) {
	return s.distinctFunc(ctx, from, to)
}

func (s *stubEvents) CountEvents(ctx context.Context, event string, from, to time.Time) (int, error) {
	return s.countFunc(ctx, event, from, to)
}

func newTestService(users repository.UserRepository, tastings repository.TastingRepository, events repository.EventRepository) *Service {
	return New(nil, testLogger(), users, tastings, events)
}

// uniqueErr mimics what the sqlite driver reports when two creations race on
// the same (user_id, seq_no).
var uniqueErr = errors.New("constraint failed: UNIQUE constraint failed: tastings.user_id, tastings.seq_no")

// ---------------------------------------------------------------------------
// EnsureUser
// ---------------------------------------------------------------------------

func TestEnsureUser_ReturnsExisting(t *testing.T) {
	existing := &models.User{ID: 10, TzOffsetMin: 60}
	users := &stubUsers{
		getFunc: func(ctx context.Context, id int64) (*models.User, error) { return existing, nil },
		createFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			t.Fatal("Create must not be called for an existing user")
			return nil, nil
		},
	}
	svc := newTestService(users, nil, nil)

	got, err := svc.EnsureUser(context.Background(), 10)
	require.NoError(t, err)
	assert.Same(t, existing, got)
}

func TestEnsureUser_CreatesOnFirstContact(t *testing.T) {
	var created *models.User
	users := &stubUsers{
		getFunc: func(ctx context.Context, id int64) (*models.User, error) { return nil, nil },
		createFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			created = u
			return u, nil
		},
	}
	svc := newTestService(users, nil, nil)
	svc.SetClock(func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) })

	got, err := svc.EnsureUser(context.Background(), 77)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(77), got.ID)
	assert.Equal(t, time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestEnsureUser_CreateRaceFallsBackToGet(t *testing.T) {
	calls := 0
	winner := &models.User{ID: 5}
	users := &stubUsers{
		getFunc: func(ctx context.Context, id int64) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, nil // not there yet
			}
			return winner, nil // the racing message created it meanwhile
		},
		createFunc: func(ctx context.Context, u *models.User) (*models.User, error) {
			return nil, uniqueErr
		},
	}
	svc := newTestService(users, nil, nil)

	got, err := svc.EnsureUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Same(t, winner, got)
	assert.Equal(t, 2, calls)
}

// ---------------------------------------------------------------------------
// CreateTasting
// ---------------------------------------------------------------------------

func TestCreateTasting_RetriesOnceOnSeqRace(t *testing.T) {
	attempts := 0
	tastings := &stubTastings{
		createFunc: func(ctx context.Context, tt *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
			attempts++
			if attempts == 1 {
				return nil, uniqueErr
			}
			tt.ID = 100
			tt.SeqNo = 4
			return tt, nil
		},
	}
	svc := newTestService(nil, tastings, nil)

	created, err := svc.CreateTasting(context.Background(), &models.Tasting{UserID: 1, Name: "x"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 4, created.SeqNo)
}

func TestCreateTasting_GivesUpAfterSecondRace(t *testing.T) {
	attempts := 0
	tastings := &stubTastings{
		createFunc: func(ctx context.Context, tt *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
			attempts++
			return nil, uniqueErr
		},
	}
	svc := newTestService(nil, tastings, nil)

	_, err := svc.CreateTasting(context.Background(), &models.Tasting{UserID: 1, Name: "x"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestCreateTasting_NoRetryOnOtherErrors(t *testing.T) {
	attempts := 0
	tastings := &stubTastings{
		createFunc: func(ctx context.Context, tt *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
			attempts++
			return nil, errors.New("disk I/O error")
		},
	}
	svc := newTestService(nil, tastings, nil)

	_, err := svc.CreateTasting(context.Background(), &models.Tasting{UserID: 1, Name: "x"}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCreateTasting_CapsPhotos(t *testing.T) {
	var gotPhotos []string
	tastings := &stubTastings{
		createFunc: func(ctx context.Context, tt *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
			gotPhotos = photoIDs
			return tt, nil
		},
	}
	svc := newTestService(nil, tastings, nil)

	_, err := svc.CreateTasting(context.Background(), &models.Tasting{UserID: 1, Name: "x"}, nil,
		[]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, gotPhotos)
}

// ---------------------------------------------------------------------------
// ResolveTasting
// ---------------------------------------------------------------------------

func TestResolveTasting(t *testing.T) {
	mine := &models.Tasting{ID: 50, UserID: 1, SeqNo: 3, Name: "mine"}
	foreign := &models.Tasting{ID: 60, UserID: 2, Name: "theirs"}

	tastings := &stubTastings{
		getBySeqFunc: func(ctx context.Context, userID int64, seqNo int) (*models.Tasting, error) {
			if userID == 1 && seqNo == 3 {
				return mine, nil
			}
			return nil, nil
		},
		getByIDFunc: func(ctx context.Context, id int64) (*models.Tasting, error) {
			switch id {
			case 50:
				return mine, nil
			case 60:
				return foreign, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(nil, tastings, nil)
	ctx := context.Background()

	got, err := svc.ResolveTasting(ctx, 1, "#3")
	require.NoError(t, err)
	assert.Same(t, mine, got)

	got, err = svc.ResolveTasting(ctx, 1, " 50 ")
	require.NoError(t, err)
	assert.Same(t, mine, got)

	// someone else's record by internal id stays invisible
	got, err = svc.ResolveTasting(ctx, 1, "60")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, token := range []string{"", "#", "#abc", "abc", "#999"} {
		got, err = svc.ResolveTasting(ctx, 1, token)
		require.NoError(t, err, "token %q", token)
		assert.Nil(t, got, "token %q", token)
	}
}

// ---------------------------------------------------------------------------
// StatsToday
// ---------------------------------------------------------------------------

func TestStatsToday_UsesUTCDayWindow(t *testing.T) {
	var gotFrom, gotTo time.Time
	events := &stubEvents{
		distinctFunc: func(ctx context.Context, from, to time.Time) (int, error) {
			gotFrom, gotTo = from, to
			return 3, nil
		},
		countFunc: func(ctx context.Context, event string, from, to time.Time) (int, error) {
			switch event {
			case models.EventTastingStarted:
				return 5, nil
			case models.EventTastingSaved:
				return 4, nil
			}
			return 0, nil
		},
	}
	svc := newTestService(nil, nil, events)
	svc.SetClock(func() time.Time {
		return time.Date(2026, 8, 26, 23, 45, 0, 0, time.FixedZone("UTC+3", 3*3600))
	})

	stats, err := svc.StatsToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &DailyStats{DAU: 3, Started: 5, Saved: 4}, stats)
	// 23:45 UTC+3 is 20:45 UTC, so the window is the UTC 26th
	assert.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), gotTo)
}
