package service

import (
	"context"
	"fmt"
	"strings"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/drawer"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

// RecordCount persists a physical count against the drawer's expected cash.
// A count taken while COUNTING returns the session to OPEN.
func (s *Service) RecordCount(ctx context.Context, sessionID string, req domain.CountRequest) (domain.CountResponse, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CountResponse{}, err
	}
	if !req.Type.Manual() {
		return domain.CountResponse{}, fmt.Errorf("%w: count type %q cannot be recorded directly", store.ErrValidation, req.Type)
	}
	if err := validateDenominations(req.DenominationCount); err != nil {
		return domain.CountResponse{}, err
	}

	var resp domain.CountResponse
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		session, err := lockOperable(ctx, tx, actor, sessionID)
		if err != nil {
			return err
		}
		next, err := transition(*session, domain.ActionCount)
		if err != nil {
			return err
		}
		count, err := s.insertCount(ctx, tx, actor, *session, req.Type, req.DenominationCount, req.Notes, req.VerifiedBy)
		if err != nil {
			return err
		}
		if next != session.Status {
			session.Status = next
			if err := tx.UpdateSession(ctx, *session); err != nil {
				return err
			}
		}
		summary, err := loadSummary(ctx, tx, *session)
		if err != nil {
			return err
		}
		resp = domain.CountResponse{Count: count, Session: *session, Summary: summary}
		return nil
	})
	if err != nil {
		return domain.CountResponse{}, err
	}

	s.logAudit(ctx, actor.TenantID, "cash_count_create", "cash_session", resp.Session.ID, fmt.Sprintf("count=%s,type=%s,total=%d,difference=%d", resp.Count.ID, resp.Count.Type, resp.Count.TotalCents, resp.Count.DifferenceCents))
	return resp, nil
}

// insertCount reconciles a count against the session's current expected cash
// and stores it through tx.
func (s *Service) insertCount(ctx context.Context, tx store.Tx, actor domain.Actor, session domain.CashSession, countType domain.CountType, denominations domain.DenominationCount, notes string, verifiedBy string) (domain.CashCount, error) {
	expected, err := expectedCash(ctx, tx, session)
	if err != nil {
		return domain.CashCount{}, err
	}
	count := domain.CashCount{
		ID:         xid.New("cc"),
		SessionID:  session.ID,
		TenantID:   session.TenantID,
		Type:       countType,
		Bills:      denominations.Bills,
		Coins:      denominations.Coins,
		Notes:      strings.TrimSpace(notes),
		CountedBy:  actor.UserID,
		VerifiedBy: strings.TrimSpace(verifiedBy),
		CreatedAt:  s.now(),
	}
	drawer.Reconcile(denominations, expected).ApplyTo(&count)
	if err := tx.InsertCount(ctx, count); err != nil {
		return domain.CashCount{}, err
	}
	return count, nil
}

func validateDenominations(c domain.DenominationCount) error {
	if c.Bills.HasNegative() || c.Coins.HasNegative() {
		return fmt.Errorf("%w: denomination quantities must not be negative", store.ErrValidation)
	}
	if c.VouchersCents < 0 || c.ChecksCents < 0 || c.OtherCents < 0 {
		return fmt.Errorf("%w: non-cash values must not be negative", store.ErrValidation)
	}
	return nil
}
