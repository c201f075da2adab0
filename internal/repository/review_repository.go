package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
)

// ReviewRepo persists reviews.  Images are stored as a JSON array; the
// UNIQUE (class_id, user_id) index enforces one review per user and class.
type ReviewRepo struct {
    db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, class_id, user_id, user_name, rating, content, images, created_at, updated_at`

func scanReview(row rowScanner) (model.Review, error) {
    var (
        rv  model.Review
        raw []byte
    )
    if err := row.Scan(&rv.ID, &rv.ClassID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Content,
        &raw, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
        return rv, err
    }
    rv.Images = []string{}
    if len(raw) > 0 {
        if err := json.Unmarshal(raw, &rv.Images); err != nil {
            return rv, fmt.Errorf("decode images: %w", err)
        }
    }
    return rv, nil
}

// CreateReview inserts rv.  Eligibility is decided by the caller; this
// only maps the unique index violation to ErrDuplicateReview.
func (r *ReviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
    if rv.Images == nil {
        rv.Images = []string{}
    }
    images, err := json.Marshal(rv.Images)
    if err != nil {
        return fmt.Errorf("encode images: %w", err)
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        rv.ID, rv.ClassID, rv.UserID, rv.UserName, rv.Rating, rv.Content, images,
        rv.CreatedAt.UTC(), rv.UpdatedAt.UTC(),
    )
    if err != nil {
        if IsDuplicateEntry(err) {
            return fmt.Errorf("class %s user %s: %w", rv.ClassID, rv.UserID, ErrDuplicateReview)
        }
        return fmt.Errorf("insert review: %w", err)
    }
    return nil
}

// ListReviewsForClass returns a page of a class's reviews, newest first.
func (r *ReviewRepo) ListReviewsForClass(ctx context.Context, classID uuid.UUID, limit, offset int) ([]model.Review, error) {
    q := `SELECT ` + reviewColumns + ` FROM reviews
          WHERE class_id = ?
          ORDER BY created_at DESC, id DESC
          LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, classID, limit, offset)
    if err != nil {
        return nil, fmt.Errorf("list reviews: %w", err)
    }
    defer rows.Close()
    out := make([]model.Review, 0)
    for rows.Next() {
        rv, err := scanReview(rows)
        if err != nil {
            return nil, fmt.Errorf("scan review: %w", err)
        }
        out = append(out, rv)
    }
    return out, rows.Err()
}

// GetReviewForUser returns the user's review of the class, or nil when
// there is none.
func (r *ReviewRepo) GetReviewForUser(ctx context.Context, classID uuid.UUID, userID string) (*model.Review, error) {
    rv, err := scanReview(r.db.QueryRowContext(ctx,
        `SELECT `+reviewColumns+` FROM reviews WHERE class_id = ? AND user_id = ?`, classID, userID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, fmt.Errorf("get review: %w", err)
    }
    return &rv, nil
}
