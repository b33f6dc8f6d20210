package cache

import (
	"context"
	"time"

	"cianbox-pos/backend/internal/domain"
)

// SummaryCache holds close summaries of terminal sessions. Entries never
// change once written because terminal sessions are immutable.
type SummaryCache interface {
	Get(ctx context.Context, key string) (*domain.SessionSummary, bool, error)
	Set(ctx context.Context, key string, value *domain.SessionSummary, ttl time.Duration) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.SessionSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.SessionSummary, _ time.Duration) error {
	return nil
}

func SummaryKey(tenantID string, sessionID string) string {
	return "cash-summary:" + tenantID + ":" + sessionID
}
