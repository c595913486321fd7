package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

// openTestDB opens a throwaway sqlite database with the real migrations
// applied, so the tests exercise the same schema the bot runs on.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, name := range []string{"0001_init.up.sql", "0002_bot_events.up.sql"} {
		script, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "sqlite", name))
		require.NoError(t, err)
		_, err = db.Exec(string(script))
		require.NoError(t, err, "migration %s", name)
	}
	return db
}

func seedUser(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id) VALUES (?)`, id)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Dialect
// ---------------------------------------------------------------------------

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b = ?",
		SQLite.rebind("SELECT * FROM t WHERE a = $1 AND b = $2"))
	assert.Equal(t, "LIMIT ?", SQLite.rebind("LIMIT $12"))
	assert.Equal(t, "no placeholders", SQLite.rebind("no placeholders"))
	assert.Equal(t, "SELECT $1", Postgres.rebind("SELECT $1"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(fmt.Errorf("connection refused")))
	assert.True(t, IsUniqueViolation(fmt.Errorf(
		"failed to insert tasting: %w",
		fmt.Errorf("constraint failed: UNIQUE constraint failed: tastings.user_id, tastings.seq_no"))))
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db, SQLite)
	ctx := context.Background()

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := repo.Create(ctx, &models.User{ID: 42})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, 0, got.TzOffsetMin)
}

func TestUserRepository_SetTimezone(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db, SQLite)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.User{ID: 7})
	require.NoError(t, err)

	require.NoError(t, repo.SetTimezone(ctx, 7, 180))

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 180, got.TzOffsetMin)

	assert.Error(t, repo.SetTimezone(ctx, 999, 60))
}

// ---------------------------------------------------------------------------
// Tastings
// ---------------------------------------------------------------------------

func newTasting(userID int64, name string) *models.Tasting {
	return &models.Tasting{UserID: userID, Name: name}
}

func TestTastingRepository_CreateAssignsSequentialNumbers(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedUser(t, db, 2)

	for i := 1; i <= 3; i++ {
		created, err := repo.CreateWithChildren(ctx, newTasting(1, fmt.Sprintf("tea %d", i)), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, i, created.SeqNo)
		assert.NotZero(t, created.ID)
	}

	// the sequence is per user, not global
	other, err := repo.CreateWithChildren(ctx, newTasting(2, "other"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, other.SeqNo)
}

func TestTastingRepository_CreateWithChildren(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)

	tt := &models.Tasting{
		UserID:   1,
		Name:     "Shui Xian",
		Category: ptr("Oolong"),
		Year:     ptr(2021),
		Grams:    ptr(6.5),
		Rating:   7,
	}
	infusions := []*models.Infusion{
		{N: 1, Seconds: ptr(10), Taste: ptr("roasty")},
		{N: 2, Seconds: ptr(20)},
	}

	created, err := repo.CreateWithChildren(ctx, tt, infusions, []string{"file-a", "file-b"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Shui Xian", got.Name)
	assert.Equal(t, "Oolong", *got.Category)
	assert.Equal(t, 2021, *got.Year)
	assert.InDelta(t, 6.5, *got.Grams, 0.001)

	infs, err := repo.GetInfusions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, infs, 2)
	assert.Equal(t, 1, infs[0].N)
	assert.Equal(t, "roasty", *infs[0].Taste)
	assert.Equal(t, 20, *infs[1].Seconds)

	photoIDs, err := repo.GetPhotoIDs(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"file-a", "file-b"}, photoIDs)

	count, err := repo.CountPhotos(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTastingRepository_UniqueSeqViolationDetected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedUser(t, db, 1)

	_, err := db.ExecContext(ctx, `INSERT INTO tastings (user_id, seq_no, name) VALUES (1, 1, 'a')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO tastings (user_id, seq_no, name) VALUES (1, 1, 'b')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestTastingRepository_GetBySeqNo(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedUser(t, db, 2)

	mine, err := repo.CreateWithChildren(ctx, newTasting(1, "mine"), nil, nil)
	require.NoError(t, err)
	_, err = repo.CreateWithChildren(ctx, newTasting(2, "theirs"), nil, nil)
	require.NoError(t, err)

	got, err := repo.GetBySeqNo(ctx, 1, mine.SeqNo)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mine", got.Name)

	// same seq_no under another user resolves to that user's record only
	got, err = repo.GetBySeqNo(ctx, 1, 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTastingRepository_UpdateField(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)

	created, err := repo.CreateWithChildren(ctx, newTasting(1, "before"), nil, nil)
	require.NoError(t, err)

	ok, err := repo.UpdateField(ctx, created.ID, 1, "name", "after")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateField(ctx, created.ID, 1, "region", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Nil(t, got.Region)

	// wrong owner touches nothing
	ok, err = repo.UpdateField(ctx, created.ID, 555, "name", "stolen")
	require.NoError(t, err)
	assert.False(t, ok)

	// columns outside the whitelist are rejected outright
	_, err = repo.UpdateField(ctx, created.ID, 1, "seq_no", 99)
	assert.Error(t, err)
	_, err = repo.UpdateField(ctx, created.ID, 1, "name = 'x' WHERE 1=1; --", "x")
	assert.Error(t, err)
}

func TestTastingRepository_DeleteCascades(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)

	created, err := repo.CreateWithChildren(ctx, newTasting(1, "doomed"),
		[]*models.Infusion{{N: 1}}, []string{"pic"})
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, created.ID, 999)
	require.NoError(t, err)
	assert.False(t, ok, "foreign owner must not delete")

	ok, err = repo.Delete(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM infusions WHERE tasting_id = ?`, created.ID).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM photos WHERE tasting_id = ?`, created.ID).Scan(&n))
	assert.Zero(t, n)
}

func TestTastingRepository_Pagination(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)

	for i := 1; i <= 12; i++ {
		_, err := repo.CreateWithChildren(ctx, newTasting(1, fmt.Sprintf("tea %02d", i)), nil, nil)
		require.NoError(t, err)
	}

	filter := repository.SearchFilter{Kind: repository.SearchLast}

	page1, more, err := repo.Page(ctx, 1, filter, nil, 5)
	require.NoError(t, err)
	require.Len(t, page1, 5)
	assert.True(t, more)
	assert.Equal(t, "tea 12", page1[0].Name, "newest first")
	assert.Equal(t, "tea 08", page1[4].Name)

	before := page1[len(page1)-1].ID
	page2, more, err := repo.Page(ctx, 1, filter, &before, 5)
	require.NoError(t, err)
	require.Len(t, page2, 5)
	assert.True(t, more)
	assert.Equal(t, "tea 07", page2[0].Name)

	before = page2[len(page2)-1].ID
	page3, more, err := repo.Page(ctx, 1, filter, &before, 5)
	require.NoError(t, err)
	require.Len(t, page3, 2)
	assert.False(t, more)
	assert.Equal(t, "tea 01", page3[1].Name)
}

func TestTastingRepository_PageFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)

	rows := []*models.Tasting{
		{UserID: 1, Name: "Da Hong Pao", Category: ptr("Oolong"), Year: ptr(2020), Rating: 9},
		{UserID: 1, Name: "Bai Mu Dan", Category: ptr("White"), Year: ptr(2021), Rating: 6},
		{UserID: 1, Name: "Aged bai mu dan", Category: ptr("White"), Year: ptr(2015), Rating: 8},
	}
	for _, row := range rows {
		_, err := repo.CreateWithChildren(ctx, row, nil, nil)
		require.NoError(t, err)
	}

	byName, _, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchName, Value: "BAI MU"}, nil, 5)
	require.NoError(t, err)
	assert.Len(t, byName, 2, "name match is case-insensitive substring")

	byCat, _, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchCat, Value: "white"}, nil, 5)
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	byYear, _, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchYear, Value: "2020"}, nil, 5)
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "Da Hong Pao", byYear[0].Name)

	byRating, _, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchRating, Value: "8"}, nil, 5)
	require.NoError(t, err)
	assert.Len(t, byRating, 2, "rating filter is a lower bound")

	// unmatchable filters come back empty without touching the database
	empty, more, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchYear, Value: "not-a-year"}, nil, 5)
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.False(t, more)
}

func TestTastingRepository_PageIsScopedToUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewTastingRepository(db, SQLite)
	ctx := context.Background()
	seedUser(t, db, 1)
	seedUser(t, db, 2)

	_, err := repo.CreateWithChildren(ctx, newTasting(1, "mine"), nil, nil)
	require.NoError(t, err)
	_, err = repo.CreateWithChildren(ctx, newTasting(2, "theirs"), nil, nil)
	require.NoError(t, err)

	page, more, err := repo.Page(ctx, 1, repository.SearchFilter{Kind: repository.SearchLast}, nil, 5)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mine", page[0].Name)
	assert.False(t, more)
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func TestEventRepository_InsertAndCount(t *testing.T) {
	db := openTestDB(t)
	repo := NewEventRepository(db, SQLite)
	ctx := context.Background()

	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	uid1, uid2 := int64(1), int64(2)

	events := []*models.BotEvent{
		{TS: day.Add(1 * time.Hour), UserID: &uid1, Event: models.EventTastingSaved, Props: map[string]any{"seq_no": 1}},
		{TS: day.Add(2 * time.Hour), UserID: &uid1, Event: models.EventTastingSaved},
		{TS: day.Add(3 * time.Hour), UserID: &uid2, Event: models.EventSearch},
		{TS: day.Add(-time.Hour), UserID: &uid2, Event: models.EventTastingSaved}, // previous day
	}
	for _, ev := range events {
		require.NoError(t, repo.Insert(ctx, ev))
	}

	saved, err := repo.CountEvents(ctx, models.EventTastingSaved, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	dau, err := repo.CountDistinctUsers(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, dau)
}
