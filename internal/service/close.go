package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/drawer"
	"cianbox-pos/backend/internal/store"
)

// CloseSession ends a session. Without a count the drawer is assumed to hold
// exactly the expected amount.
func (s *Service) CloseSession(ctx context.Context, sessionID string, req domain.CloseSessionRequest) (domain.CloseSessionResponse, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CloseSessionResponse{}, err
	}
	if req.Count != nil {
		if err := validateDenominations(*req.Count); err != nil {
			return domain.CloseSessionResponse{}, err
		}
	}

	var resp domain.CloseSessionResponse
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		session, err := lockOperable(ctx, tx, actor, sessionID)
		if err != nil {
			return err
		}
		next, err := transition(*session, domain.ActionClose)
		if err != nil {
			return err
		}

		sales, err := tx.ListSessionSales(ctx, session.TenantID, session.ID)
		if err != nil {
			return err
		}
		movements, err := tx.ListSessionMovements(ctx, session.TenantID, session.ID)
		if err != nil {
			return err
		}
		expected := drawer.ExpectedCash(*session, sales, movements)

		closing := expected
		if req.Count != nil {
			count, err := s.insertCount(ctx, tx, actor, *session, domain.CountClosing, *req.Count, req.Notes, req.VerifiedBy)
			if err != nil {
				return err
			}
			closing = count.TotalCents
			resp.Count = &count
		}

		snapshotClose(session, next, actor, s.now(), closing, expected, sales, movements)
		session.ClosingNotes = strings.TrimSpace(req.Notes)
		if err := tx.UpdateSession(ctx, *session); err != nil {
			return err
		}

		counts, err := tx.ListSessionCounts(ctx, session.TenantID, session.ID)
		if err != nil {
			return err
		}
		resp.Session = *session
		resp.Summary = buildSummary(*session, sales, movements, len(counts))
		return nil
	})
	if err != nil {
		return domain.CloseSessionResponse{}, err
	}

	s.cacheSummary(ctx, resp.Session.TenantID, resp.Summary)
	s.logAudit(ctx, actor.TenantID, "cash_session_close", "cash_session", resp.Session.ID, fmt.Sprintf("closing=%d,expected=%d,difference=%d", resp.Summary.ClosingCents, resp.Summary.ExpectedCents, resp.Summary.DifferenceCents))
	return resp, nil
}

// snapshotClose writes the closing figures onto a session moving to a
// terminal status. They are set here once and never touched again.
func snapshotClose(session *domain.CashSession, status domain.SessionStatus, actor domain.Actor, at time.Time, closing int64, expected int64, sales []domain.Sale, movements []domain.CashMovement) {
	difference := closing - expected
	closedAt := at
	session.Status = status
	session.ClosedAt = &closedAt
	session.ClosedBy = actor.UserID
	session.ClosingCents = &closing
	session.ExpectedCents = &expected
	session.DifferenceCents = &difference
	session.Totals = drawer.AggregatePayments(sales)
	session.DepositsCents, session.WithdrawalsCents = drawer.MovementTotals(movements)
}
