package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

const tastingColumns = `id, user_id, seq_no, name, year, region, category, grams,
	temp_c, tasted_at, gear, aroma_dry, aroma_warmed, effects_csv, scenarios_csv,
	rating, summary, created_at`

// editableColumns is the whitelist for single-field updates from the edit
// flow. Anything else is a programming error, not user input.
var editableColumns = map[string]bool{
	"name":          true,
	"year":          true,
	"region":        true,
	"category":      true,
	"grams":         true,
	"temp_c":        true,
	"tasted_at":     true,
	"gear":          true,
	"aroma_dry":     true,
	"aroma_warmed":  true,
	"effects_csv":   true,
	"scenarios_csv": true,
	"rating":        true,
	"summary":       true,
}

type tastingRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewTastingRepository creates a new tasting repository.
func NewTastingRepository(db *sql.DB, dialect Dialect) repository.TastingRepository {
	return &tastingRepository{db: db, dialect: dialect}
}

// nextSeqNo allocates max(seq_no)+1 for the user inside the given
// transaction. On Postgres the current maximum row is read FOR UPDATE so
// concurrent allocations for the same user serialize; sqlite has no row
// locks and relies on the unique constraint plus the caller's retry.
func (r *tastingRepository) nextSeqNo(ctx context.Context, tx *sql.Tx, userID int64) (int, error) {
	query := `SELECT seq_no FROM tastings WHERE user_id = $1 ORDER BY seq_no DESC LIMIT 1`
	if r.dialect.SupportsRowLocking() {
		query += " FOR UPDATE"
	}

	var maxSeq int
	err := tx.QueryRowContext(ctx, r.dialect.rebind(query), userID).Scan(&maxSeq)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read max seq_no: %w", err)
	}
	return maxSeq + 1, nil
}

func (r *tastingRepository) CreateWithChildren(ctx context.Context, t *models.Tasting, infusions []*models.Infusion, photoIDs []string) (*models.Tasting, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seqNo, err := r.nextSeqNo(ctx, tx, t.UserID)
	if err != nil {
		return nil, err
	}
	t.SeqNo = seqNo
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	insert := r.dialect.rebind(`
		INSERT INTO tastings (user_id, seq_no, name, year, region, category, grams,
			temp_c, tasted_at, gear, aroma_dry, aroma_warmed, effects_csv,
			scenarios_csv, rating, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`)

	err = tx.QueryRowContext(ctx, insert,
		t.UserID, t.SeqNo, t.Name, t.Year, t.Region, t.Category, t.Grams,
		t.TempC, t.TastedAt, t.Gear, t.AromaDry, t.AromaWarmed, t.EffectsCSV,
		t.ScenariosCSV, t.Rating, t.Summary, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tasting: %w", err)
	}

	infInsert := r.dialect.rebind(`
		INSERT INTO infusions (tasting_id, n, seconds, liquor_color, taste,
			special_notes, body, aftertaste)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	for _, inf := range infusions {
		inf.TastingID = t.ID
		if _, err := tx.ExecContext(ctx, infInsert,
			inf.TastingID, inf.N, inf.Seconds, inf.LiquorColor, inf.Taste,
			inf.SpecialNotes, inf.Body, inf.Aftertaste,
		); err != nil {
			return nil, fmt.Errorf("failed to insert infusion %d: %w", inf.N, err)
		}
	}

	photoInsert := r.dialect.rebind(`INSERT INTO photos (tasting_id, file_id) VALUES ($1, $2)`)
	for _, fileID := range photoIDs {
		if _, err := tx.ExecContext(ctx, photoInsert, t.ID, fileID); err != nil {
			return nil, fmt.Errorf("failed to insert photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tasting: %w", err)
	}
	return t, nil
}

func (r *tastingRepository) scanTasting(row interface{ Scan(...any) error }) (*models.Tasting, error) {
	t := &models.Tasting{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.SeqNo, &t.Name, &t.Year, &t.Region, &t.Category,
		&t.Grams, &t.TempC, &t.TastedAt, &t.Gear, &t.AromaDry, &t.AromaWarmed,
		&t.EffectsCSV, &t.ScenariosCSV, &t.Rating, &t.Summary, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tastingRepository) GetByID(ctx context.Context, id int64) (*models.Tasting, error) {
	query := r.dialect.rebind(`SELECT ` + tastingColumns + ` FROM tastings WHERE id = $1`)

	t, err := r.scanTasting(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tasting: %w", err)
	}
	return t, nil
}

func (r *tastingRepository) GetBySeqNo(ctx context.Context, userID int64, seqNo int) (*models.Tasting, error) {
	query := r.dialect.rebind(`SELECT ` + tastingColumns + ` FROM tastings WHERE user_id = $1 AND seq_no = $2`)

	t, err := r.scanTasting(r.db.QueryRowContext(ctx, query, userID, seqNo))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tasting by seq_no: %w", err)
	}
	return t, nil
}

func (r *tastingRepository) GetInfusions(ctx context.Context, tastingID int64) ([]*models.Infusion, error) {
	query := r.dialect.rebind(`
		SELECT id, tasting_id, n, seconds, liquor_color, taste, special_notes, body, aftertaste
		FROM infusions
		WHERE tasting_id = $1
		ORDER BY n`)

	rows, err := r.db.QueryContext(ctx, query, tastingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query infusions: %w", err)
	}
	defer rows.Close()

	var infusions []*models.Infusion
	for rows.Next() {
		inf := &models.Infusion{}
		if err := rows.Scan(
			&inf.ID, &inf.TastingID, &inf.N, &inf.Seconds, &inf.LiquorColor,
			&inf.Taste, &inf.SpecialNotes, &inf.Body, &inf.Aftertaste,
		); err != nil {
			return nil, fmt.Errorf("failed to scan infusion: %w", err)
		}
		infusions = append(infusions, inf)
	}
	return infusions, rows.Err()
}

func (r *tastingRepository) GetPhotoIDs(ctx context.Context, tastingID int64, limit int) ([]string, error) {
	query := r.dialect.rebind(`
		SELECT file_id FROM photos WHERE tasting_id = $1 ORDER BY id ASC LIMIT $2`)

	rows, err := r.db.QueryContext(ctx, query, tastingID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var fileIDs []string
	for rows.Next() {
		var fileID string
		if err := rows.Scan(&fileID); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		fileIDs = append(fileIDs, fileID)
	}
	return fileIDs, rows.Err()
}

func (r *tastingRepository) CountPhotos(ctx context.Context, tastingID int64) (int, error) {
	query := r.dialect.rebind(`SELECT COUNT(id) FROM photos WHERE tasting_id = $1`)

	var count int
	if err := r.db.QueryRowContext(ctx, query, tastingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

// UpdateField writes one column of one tasting, scoped to the owning user.
// Returns false when the record does not exist or belongs to someone else.
func (r *tastingRepository) UpdateField(ctx context.Context, id, userID int64, column string, value any) (bool, error) {
	if !editableColumns[column] {
		return false, fmt.Errorf("column %q is not editable", column)
	}

	query := r.dialect.rebind(
		fmt.Sprintf(`UPDATE tastings SET %s = $3 WHERE id = $1 AND user_id = $2`, column))

	result, err := r.db.ExecContext(ctx, query, id, userID, value)
	if err != nil {
		return false, fmt.Errorf("failed to update tasting field %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete removes a tasting owned by userID; infusions and photos cascade.
func (r *tastingRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	query := r.dialect.rebind(`DELETE FROM tastings WHERE id = $1 AND user_id = $2`)

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tasting: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// filterClause renders the WHERE fragment for one search dimension. Returns
// ok=false for filters that cannot match anything (empty name, non-numeric
// year).
func filterClause(filter repository.SearchFilter, argIdx int) (clause string, args []any, ok bool) {
	switch filter.Kind {
	case repository.SearchLast:
		return "", nil, true
	case repository.SearchName:
		if filter.Value == "" {
			return "", nil, false
		}
		return fmt.Sprintf(" AND LOWER(name) LIKE LOWER($%d)", argIdx),
			[]any{"%" + filter.Value + "%"}, true
	case repository.SearchCat:
		if filter.Value == "" {
			return "", nil, false
		}
		return fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", argIdx),
			[]any{filter.Value}, true
	case repository.SearchYear:
		year, err := strconv.Atoi(filter.Value)
		if err != nil {
			return "", nil, false
		}
		return fmt.Sprintf(" AND year = $%d", argIdx), []any{year}, true
	case repository.SearchRating:
		threshold, err := strconv.Atoi(filter.Value)
		if err != nil {
			return "", nil, false
		}
		return fmt.Sprintf(" AND rating >= $%d", argIdx), []any{threshold}, true
	}
	return "", nil, false
}

// Page returns up to pageSize tastings matching the filter, newest first,
// strictly below beforeID when set, plus a one-row lookahead telling whether
// another page exists.
func (r *tastingRepository) Page(ctx context.Context, userID int64, filter repository.SearchFilter, beforeID *int64, pageSize int) ([]*models.Tasting, bool, error) {
	query := `SELECT ` + tastingColumns + ` FROM tastings WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	clause, clauseArgs, ok := filterClause(filter, argIdx)
	if !ok {
		return nil, false, nil
	}
	query += clause
	args = append(args, clauseArgs...)
	argIdx += len(clauseArgs)

	if beforeID != nil {
		query += fmt.Sprintf(" AND id < $%d", argIdx)
		args = append(args, *beforeID)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", argIdx)
	args = append(args, pageSize)

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query tastings page: %w", err)
	}
	defer rows.Close()

	var tastings []*models.Tasting
	for rows.Next() {
		t, err := r.scanTasting(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan tasting: %w", err)
		}
		tastings = append(tastings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(tastings) == 0 {
		return nil, false, nil
	}

	more, err := r.hasOlder(ctx, userID, filter, tastings[len(tastings)-1].ID)
	if err != nil {
		return nil, false, err
	}
	return tastings, more, nil
}

// hasOlder probes for one more matching row older than oldestID.
func (r *tastingRepository) hasOlder(ctx context.Context, userID int64, filter repository.SearchFilter, oldestID int64) (bool, error) {
	query := `SELECT id FROM tastings WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	clause, clauseArgs, ok := filterClause(filter, argIdx)
	if !ok {
		return false, nil
	}
	query += clause
	args = append(args, clauseArgs...)
	argIdx += len(clauseArgs)

	query += fmt.Sprintf(" AND id < $%d ORDER BY id DESC LIMIT 1", argIdx)
	args = append(args, oldestID)

	var id int64
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(query), args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe next page: %w", err)
	}
	return true, nil
}
