package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/drawer"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

// TransferSession hands the drawer to another cashier. The source session is
// closed as TRANSFERRED and a new OPEN session on the same till starts with
// the transferred amount as its float. Nothing is written unless every step
// succeeds.
func (s *Service) TransferSession(ctx context.Context, sessionID string, req domain.TransferSessionRequest) (domain.TransferSessionResponse, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.TransferSessionResponse{}, err
	}
	req.ToCashierID = strings.TrimSpace(req.ToCashierID)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.ToCashierID == "" {
		return domain.TransferSessionResponse{}, fmt.Errorf("%w: to_cashier_id is required", store.ErrValidation)
	}
	if req.TransferCents < 0 {
		return domain.TransferSessionResponse{}, fmt.Errorf("%w: transfer amount must not be negative", store.ErrValidation)
	}
	if req.Count != nil {
		if err := validateDenominations(*req.Count); err != nil {
			return domain.TransferSessionResponse{}, err
		}
	}

	var resp domain.TransferSessionResponse
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		source, err := lockOperable(ctx, tx, actor, sessionID)
		if err != nil {
			return err
		}
		next, err := transition(*source, domain.ActionTransfer)
		if err != nil {
			return err
		}
		if err := checkReceivingCashier(ctx, tx, *source, req.ToCashierID); err != nil {
			return err
		}
		till, err := tx.GetTill(ctx, source.TenantID, source.TillID)
		if err != nil {
			return fmt.Errorf("till %s: %w", source.TillID, err)
		}

		// 1. snapshot the source drawer
		sales, err := tx.ListSessionSales(ctx, source.TenantID, source.ID)
		if err != nil {
			return err
		}
		movements, err := tx.ListSessionMovements(ctx, source.TenantID, source.ID)
		if err != nil {
			return err
		}
		expected := drawer.ExpectedCash(*source, sales, movements)
		if req.Count != nil {
			if _, err := s.insertCount(ctx, tx, actor, *source, domain.CountTransfer, *req.Count, req.Notes, ""); err != nil {
				return err
			}
		}

		// 2. close the source as TRANSFERRED
		now := s.now()
		snapshotClose(source, next, actor, now, req.TransferCents, expected, sales, movements)
		source.TransferCents = req.TransferCents
		source.ClosingNotes = req.Notes
		if err := tx.UpdateSession(ctx, *source); err != nil {
			return err
		}

		// 3. take the float out of the source
		receivingID := xid.New("cs")
		if err := tx.InsertMovement(ctx, domain.CashMovement{
			ID:          xid.New("mv"),
			SessionID:   source.ID,
			TenantID:    source.TenantID,
			Type:        domain.MovementTransferOut,
			AmountCents: req.TransferCents,
			Reason:      domain.ReasonShiftTransfer,
			Description: req.Notes,
			Reference:   receivingID,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		// 4. open the receiving session on the same till
		sequence, err := nextSequenceNumber(ctx, tx, *till, now)
		if err != nil {
			return err
		}
		receiving := domain.CashSession{
			ID:                receivingID,
			TenantID:          source.TenantID,
			BranchID:          source.BranchID,
			TillID:            source.TillID,
			TillCode:          source.TillCode,
			CashierID:         req.ToCashierID,
			SequenceNumber:    sequence,
			Status:            domain.SessionOpen,
			OpeningCents:      req.TransferCents,
			OpenedAt:          now,
			OpenedBy:          actor.UserID,
			OpeningNotes:      req.Notes,
			PreviousSessionID: source.ID,
			TransferCents:     req.TransferCents,
		}
		if err := tx.InsertSession(ctx, receiving); err != nil {
			return err
		}

		// 5. bring the float into the receiving session
		if err := tx.InsertMovement(ctx, domain.CashMovement{
			ID:          xid.New("mv"),
			SessionID:   receiving.ID,
			TenantID:    receiving.TenantID,
			Type:        domain.MovementTransferIn,
			AmountCents: req.TransferCents,
			Reason:      domain.ReasonShiftTransfer,
			Description: req.Notes,
			Reference:   source.ID,
			CreatedBy:   actor.UserID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		resp = domain.TransferSessionResponse{ClosedSession: *source, NewSession: receiving}
		return nil
	})
	if err != nil {
		return domain.TransferSessionResponse{}, err
	}

	closed := resp.ClosedSession
	summary, err := loadSummary(ctx, s.repo, closed)
	if err != nil {
		log.Printf("[service] WARN: failed to build transfer summary session=%s: %v", closed.ID, err)
	} else {
		s.cacheSummary(ctx, closed.TenantID, summary)
	}
	s.logAudit(ctx, actor.TenantID, "cash_session_transfer", "cash_session", closed.ID, fmt.Sprintf("to_session=%s,to_cashier=%s,amount=%d,difference=%d", resp.NewSession.ID, resp.NewSession.CashierID, req.TransferCents, *closed.DifferenceCents))
	return resp, nil
}

func checkReceivingCashier(ctx context.Context, tx store.Tx, source domain.CashSession, cashierID string) error {
	if cashierID == source.CashierID {
		return fmt.Errorf("%w: cannot transfer a session to its own cashier", store.ErrValidation)
	}
	user, err := tx.GetUser(ctx, source.TenantID, cashierID)
	if err != nil {
		return fmt.Errorf("receiving cashier %s: %w", cashierID, err)
	}
	if !user.Active {
		return fmt.Errorf("%w: receiving cashier %s is inactive", store.ErrValidation, user.Username)
	}
	existing, err := tx.FindActiveSessionByCashier(ctx, source.TenantID, cashierID)
	if err == nil {
		return fmt.Errorf("%w: receiving cashier already has active session %s", store.ErrConflict, existing.SequenceNumber)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
