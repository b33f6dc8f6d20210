package service

import (
	"context"
	"log"

	"cianbox-pos/backend/internal/cache"
	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/drawer"
	"cianbox-pos/backend/internal/store"
)

// Summary returns the figure set for a session. Terminal sessions report
// their closing snapshot and are served from the cache; live sessions are
// recomputed.
func (s *Service) Summary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.SessionSummary{}, err
	}

	key := cache.SummaryKey(session.TenantID, session.ID)
	if session.Status.Terminal() {
		cached, ok, err := s.summaries.Get(ctx, key)
		if err != nil {
			log.Printf("[service] WARN: summary cache get failed session=%s: %v", session.ID, err)
		}
		if ok && cached != nil {
			return *cached, nil
		}
	}

	summary, err := loadSummary(ctx, s.repo, session)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	if session.Status.Terminal() {
		s.cacheSummary(ctx, session.TenantID, summary)
	}
	return summary, nil
}

func (s *Service) cacheSummary(ctx context.Context, tenantID string, summary domain.SessionSummary) {
	if err := s.summaries.Set(ctx, cache.SummaryKey(tenantID, summary.SessionID), &summary, s.summaryTTL); err != nil {
		log.Printf("[service] WARN: summary cache set failed session=%s: %v", summary.SessionID, err)
	}
}

func loadSummary(ctx context.Context, r store.Reader, session domain.CashSession) (domain.SessionSummary, error) {
	sales, err := r.ListSessionSales(ctx, session.TenantID, session.ID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	movements, err := r.ListSessionMovements(ctx, session.TenantID, session.ID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	counts, err := r.ListSessionCounts(ctx, session.TenantID, session.ID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	return buildSummary(session, sales, movements, len(counts)), nil
}

func buildSummary(session domain.CashSession, sales []domain.Sale, movements []domain.CashMovement, countsCount int) domain.SessionSummary {
	summary := domain.SessionSummary{
		SessionID:      session.ID,
		SequenceNumber: session.SequenceNumber,
		Status:         session.Status,
		OpeningCents:   session.OpeningCents,
		MovementsCount: len(movements),
		CountsCount:    countsCount,
	}

	if session.Status.Terminal() && session.ExpectedCents != nil {
		summary.ExpectedCents = *session.ExpectedCents
		if session.ClosingCents != nil {
			summary.ClosingCents = *session.ClosingCents
		}
		if session.DifferenceCents != nil {
			summary.DifferenceCents = *session.DifferenceCents
		}
		summary.Totals = session.Totals
		summary.DepositsCents = session.DepositsCents
		summary.WithdrawalsCents = session.WithdrawalsCents
	} else {
		summary.ExpectedCents = drawer.ExpectedCash(session, sales, movements)
		summary.Totals = drawer.AggregatePayments(sales)
		summary.DepositsCents, summary.WithdrawalsCents = drawer.MovementTotals(movements)
	}
	summary.DifferenceType = drawer.Classify(summary.DifferenceCents)
	return summary
}
