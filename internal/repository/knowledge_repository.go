package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/google/uuid"
    "gorm.io/driver/mysql"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
)

// KnowledgeRepo serves the read-only knowledge base listing and the
// keyword lookup behind chat sources.  It runs gorm on top of the same
// *sql.DB pool the ledger uses.
type KnowledgeRepo struct {
    db *gorm.DB
}

// NewKnowledgeRepo wraps an existing connection pool in gorm.
func NewKnowledgeRepo(conn *sql.DB) (*KnowledgeRepo, error) {
    db, err := gorm.Open(mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}), &gorm.Config{
        Logger: logger.Default.LogMode(logger.Silent),
    })
    if err != nil {
        return nil, fmt.Errorf("open gorm: %w", err)
    }
    return &KnowledgeRepo{db: db}, nil
}

// ListBases returns a page of knowledge bases ordered by name.
func (r *KnowledgeRepo) ListBases(ctx context.Context, limit, offset int) ([]model.KnowledgeBase, error) {
    bases := make([]model.KnowledgeBase, 0)
    if err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Offset(offset).Find(&bases).Error; err != nil {
        return nil, fmt.Errorf("list knowledge bases: %w", err)
    }
    return bases, nil
}

// GetBase fetches one knowledge base.
func (r *KnowledgeRepo) GetBase(ctx context.Context, id uuid.UUID) (*model.KnowledgeBase, error) {
    var base model.KnowledgeBase
    if err := r.db.WithContext(ctx).Where("id = ?", id).First(&base).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, fmt.Errorf("knowledge base %s: %w", id, ErrNotFound)
        }
        return nil, fmt.Errorf("get knowledge base %s: %w", id, err)
    }
    return &base, nil
}

// ListItems returns a page of a base's items ordered by title.
func (r *KnowledgeRepo) ListItems(ctx context.Context, baseID uuid.UUID, limit, offset int) ([]model.KnowledgeItem, error) {
    items := make([]model.KnowledgeItem, 0)
    err := r.db.WithContext(ctx).
        Where("knowledge_base_id = ?", baseID).
        Order("title ASC").
        Limit(limit).Offset(offset).
        Find(&items).Error
    if err != nil {
        return nil, fmt.Errorf("list knowledge items: %w", err)
    }
    return items, nil
}

// SearchItems returns up to limit text items whose title or content
// contains any keyword.  uuid.Nil searches every base.
func (r *KnowledgeRepo) SearchItems(ctx context.Context, baseID uuid.UUID, keywords []string, limit int) ([]model.KnowledgeItem, error) {
    items := make([]model.KnowledgeItem, 0)
    if len(keywords) == 0 {
        return items, nil
    }
    q := r.db.WithContext(ctx).Where("content_type = ?", "text")
    if baseID != uuid.Nil {
        q = q.Where("knowledge_base_id = ?", baseID)
    }
    match := r.db.Where("1 = 0")
    for _, kw := range keywords {
        like := "%" + kw + "%"
        match = match.Or("title LIKE ?", like).Or("content LIKE ?", like)
    }
    if err := q.Where(match).Limit(limit).Find(&items).Error; err != nil {
        return nil, fmt.Errorf("search knowledge items: %w", err)
    }
    return items, nil
}
