package service

import (
    "context"

    "github.com/google/uuid"

    "github.com/iliyamo/yoga-studio-booking/internal/model"
    "github.com/iliyamo/yoga-studio-booking/internal/observability"
)

// Knowledge is the read-only knowledge base listing.
type Knowledge struct {
    store KnowledgeStore
}

func NewKnowledge(store KnowledgeStore) *Knowledge { return &Knowledge{store: store} }

func (k *Knowledge) ListBases(ctx context.Context, limit, offset int) ([]model.KnowledgeBase, error) {
    ctx, span := observability.StartSpan(ctx, "Knowledge.ListBases")
    defer span.End()
    limit, offset, err := Page(limit, offset)
    if err != nil {
        return nil, err
    }
    return k.store.ListBases(ctx, limit, offset)
}

// ListItems returns NotFound for an unknown base rather than an empty page.
func (k *Knowledge) ListItems(ctx context.Context, baseID uuid.UUID, limit, offset int) ([]model.KnowledgeItem, error) {
    ctx, span := observability.StartSpan(ctx, "Knowledge.ListItems")
    defer span.End()
    limit, offset, err := Page(limit, offset)
    if err != nil {
        return nil, err
    }
    if _, err := k.store.GetBase(ctx, baseID); err != nil {
        return nil, err
    }
    return k.store.ListItems(ctx, baseID, limit, offset)
}
