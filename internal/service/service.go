package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cianbox-pos/backend/internal/cache"
	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	summaries       cache.SummaryCache
	summaryTTL      time.Duration
	defaultTenantID string
	now             func() time.Time
}

func New(repo store.Repository, summaries cache.SummaryCache, defaultTenantID string, summaryTTL time.Duration) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if defaultTenantID == "" {
		defaultTenantID = "demo-tenant"
	}
	if summaryTTL <= 0 {
		summaryTTL = 5 * time.Minute
	}

	return &Service{
		repo:            repo,
		summaries:       summaries,
		summaryTTL:      summaryTTL,
		defaultTenantID: defaultTenantID,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// requireActor returns the caller with its tenant resolved. Every cash
// operation is attributed to a user.
func (s *Service) requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || strings.TrimSpace(actor.UserID) == "" {
		return domain.Actor{}, fmt.Errorf("%w: authenticated user required", store.ErrUnauthorized)
	}
	if actor.TenantID == "" {
		actor.TenantID = s.defaultTenantID
	}
	return actor, nil
}

// canOperate reports whether actor may act on a session. Cashiers are
// limited to their own drawer; supervisors and admins may act on any.
func canOperate(actor domain.Actor, session domain.CashSession) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSupervisor:
		return true
	default:
		return session.CashierID == actor.UserID
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", store.ErrUnauthorized)
	}
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = s.now().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, actor.TenantID, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, tenantID string, action string, entityType string, entityID string, detail string) {
	if tenantID == "" {
		tenantID = s.defaultTenantID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		TenantID:      tenantID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
