package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/drawer"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

func (s *Service) OpenSession(ctx context.Context, req domain.OpenSessionRequest) (domain.CashSession, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CashSession{}, err
	}
	req.TillID = strings.TrimSpace(req.TillID)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.TillID == "" {
		return domain.CashSession{}, fmt.Errorf("%w: till_id is required", store.ErrValidation)
	}
	if req.OpeningCents < 0 {
		return domain.CashSession{}, fmt.Errorf("%w: opening amount must not be negative", store.ErrValidation)
	}

	var opened domain.CashSession
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		till, err := tx.GetTill(ctx, actor.TenantID, req.TillID)
		if err != nil {
			return fmt.Errorf("till %s: %w", req.TillID, err)
		}
		if !till.Active {
			return fmt.Errorf("%w: till %s is inactive", store.ErrValidation, till.Code)
		}
		if err := ensureNoActiveSession(ctx, tx, actor.TenantID, till.ID, actor.UserID); err != nil {
			return err
		}

		now := s.now()
		sequence, err := nextSequenceNumber(ctx, tx, *till, now)
		if err != nil {
			return err
		}
		opened = domain.CashSession{
			ID:             xid.New("cs"),
			TenantID:       actor.TenantID,
			BranchID:       till.BranchID,
			TillID:         till.ID,
			TillCode:       till.Code,
			CashierID:      actor.UserID,
			SequenceNumber: sequence,
			Status:         domain.SessionOpen,
			OpeningCents:   req.OpeningCents,
			OpenedAt:       now,
			OpenedBy:       actor.UserID,
			OpeningNotes:   req.Notes,
		}
		return tx.InsertSession(ctx, opened)
	})
	if err != nil {
		return domain.CashSession{}, err
	}

	s.logAudit(ctx, actor.TenantID, "cash_session_open", "cash_session", opened.ID, fmt.Sprintf("till=%s,sequence=%s,opening=%d", opened.TillCode, opened.SequenceNumber, opened.OpeningCents))
	return opened, nil
}

// ensureNoActiveSession rejects an open when the till or the cashier already
// holds a non-terminal session. The store's unique constraints catch the
// races this read cannot see.
func ensureNoActiveSession(ctx context.Context, tx store.Tx, tenantID string, tillID string, cashierID string) error {
	if existing, err := tx.FindActiveSessionByTill(ctx, tenantID, tillID); err == nil {
		return fmt.Errorf("%w: till already has active session %s", store.ErrConflict, existing.SequenceNumber)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if existing, err := tx.FindActiveSessionByCashier(ctx, tenantID, cashierID); err == nil {
		return fmt.Errorf("%w: cashier already has active session %s", store.ErrConflict, existing.SequenceNumber)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// nextSequenceNumber derives <tillCode>-<YYYYMMDD>-<NNN> from the sessions
// already opened on the till that day.
func nextSequenceNumber(ctx context.Context, tx store.Tx, till domain.Till, at time.Time) (string, error) {
	n, err := tx.CountSessionsForTillDay(ctx, till.TenantID, till.ID, at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", till.Code, at.UTC().Format("20060102"), n+1), nil
}

func (s *Service) SuspendSession(ctx context.Context, sessionID string) (domain.CashSession, error) {
	return s.applyTransition(ctx, sessionID, domain.ActionSuspend, "cash_session_suspend")
}

func (s *Service) ResumeSession(ctx context.Context, sessionID string) (domain.CashSession, error) {
	return s.applyTransition(ctx, sessionID, domain.ActionResume, "cash_session_resume")
}

func (s *Service) BeginCount(ctx context.Context, sessionID string) (domain.CashSession, error) {
	return s.applyTransition(ctx, sessionID, domain.ActionBeginCount, "cash_session_begin_count")
}

func (s *Service) applyTransition(ctx context.Context, sessionID string, action domain.SessionAction, auditAction string) (domain.CashSession, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CashSession{}, err
	}

	var (
		updated domain.CashSession
		from    domain.SessionStatus
	)
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		session, err := lockOperable(ctx, tx, actor, sessionID)
		if err != nil {
			return err
		}
		next, err := transition(*session, action)
		if err != nil {
			return err
		}
		from = session.Status
		session.Status = next
		updated = *session
		return tx.UpdateSession(ctx, updated)
	})
	if err != nil {
		return domain.CashSession{}, err
	}

	s.logAudit(ctx, actor.TenantID, auditAction, "cash_session", updated.ID, fmt.Sprintf("from=%s,to=%s", from, updated.Status))
	return updated, nil
}

// lockOperable locks the session row and checks the actor may act on it.
func lockOperable(ctx context.Context, tx store.Tx, actor domain.Actor, sessionID string) (*domain.CashSession, error) {
	session, err := tx.LockSession(ctx, actor.TenantID, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if !canOperate(actor, *session) {
		return nil, fmt.Errorf("%w: session belongs to another cashier", store.ErrUnauthorized)
	}
	return session, nil
}

func transition(session domain.CashSession, action domain.SessionAction) (domain.SessionStatus, error) {
	next, ok := domain.NextStatus(session.Status, action)
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s session", store.ErrInvalidState, action, session.Status)
	}
	return next, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.CashSession, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CashSession{}, err
	}
	session, err := s.repo.GetSession(ctx, actor.TenantID, strings.TrimSpace(sessionID))
	if err != nil {
		return domain.CashSession{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if !canOperate(actor, *session) {
		return domain.CashSession{}, fmt.Errorf("%w: session belongs to another cashier", store.ErrUnauthorized)
	}
	return *session, nil
}

// CurrentSession returns the caller's non-terminal session.
func (s *Service) CurrentSession(ctx context.Context) (domain.CashSession, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CashSession{}, err
	}
	session, err := s.repo.FindActiveSessionByCashier(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return domain.CashSession{}, fmt.Errorf("current session: %w", err)
	}
	return *session, nil
}

func (s *Service) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.CashSession, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return nil, err
	}
	filter.TenantID = actor.TenantID
	if actor.Role == domain.RoleCashier {
		filter.CashierID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %s", store.ErrValidation, filter.Status)
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListSessions(ctx, filter)
}

func (s *Service) ListMovements(ctx context.Context, sessionID string) ([]domain.CashMovement, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSessionMovements(ctx, session.TenantID, session.ID)
}

func (s *Service) ListCounts(ctx context.Context, sessionID string) ([]domain.CashCount, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSessionCounts(ctx, session.TenantID, session.ID)
}

// ExpectedCash recomputes what the drawer should hold right now.
func (s *Service) ExpectedCash(ctx context.Context, sessionID string) (domain.ExpectedCashResponse, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.ExpectedCashResponse{}, err
	}
	expected, err := expectedCash(ctx, s.repo, session)
	if err != nil {
		return domain.ExpectedCashResponse{}, err
	}
	return domain.ExpectedCashResponse{
		SessionID:     session.ID,
		ExpectedCents: expected,
		At:            s.now().Format(time.RFC3339),
	}, nil
}

// expectedCash reads sales and movements through r, which is the unit of
// work when called from a mutating operation.
func expectedCash(ctx context.Context, r store.Reader, session domain.CashSession) (int64, error) {
	sales, err := r.ListSessionSales(ctx, session.TenantID, session.ID)
	if err != nil {
		return 0, err
	}
	movements, err := r.ListSessionMovements(ctx, session.TenantID, session.ID)
	if err != nil {
		return 0, err
	}
	return drawer.ExpectedCash(session, sales, movements), nil
}
