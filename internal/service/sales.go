package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

// RecordSale attributes a ticket from the sales capture to the till's open
// session. Sales are only accepted while the drawer is OPEN.
func (s *Service) RecordSale(ctx context.Context, req domain.RecordSaleRequest) (domain.Sale, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	req.TillID = strings.TrimSpace(req.TillID)
	if req.TillID == "" {
		return domain.Sale{}, fmt.Errorf("%w: till_id is required", store.ErrValidation)
	}
	if req.Status == "" {
		req.Status = domain.SaleCompleted
	}
	if !validSaleStatus(req.Status) {
		return domain.Sale{}, fmt.Errorf("%w: unknown sale status %s", store.ErrValidation, req.Status)
	}
	payments, paid, err := normalizePayments(req.Payments)
	if err != nil {
		return domain.Sale{}, err
	}
	if req.TotalCents < 0 {
		return domain.Sale{}, fmt.Errorf("%w: total must not be negative", store.ErrValidation)
	}
	if req.TotalCents == 0 {
		req.TotalCents = paid
	}

	var sale domain.Sale
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		active, err := tx.FindActiveSessionByTill(ctx, actor.TenantID, req.TillID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: till %s has no open session", store.ErrInvalidState, req.TillID)
			}
			return err
		}
		session, err := tx.LockSession(ctx, active.TenantID, active.ID)
		if err != nil {
			return err
		}
		if _, err := transition(*session, domain.ActionSale); err != nil {
			return err
		}

		sale = domain.Sale{
			ID:         xid.New("sale"),
			TenantID:   session.TenantID,
			SessionID:  session.ID,
			TillID:     session.TillID,
			Status:     req.Status,
			TotalCents: req.TotalCents,
			Payments:   payments,
			CreatedBy:  actor.UserID,
			CreatedAt:  s.now(),
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, actor.TenantID, "sale_record", "sale", sale.ID, fmt.Sprintf("session=%s,status=%s,total=%d", sale.SessionID, sale.Status, sale.TotalCents))
	return sale, nil
}

func validSaleStatus(status domain.SaleStatus) bool {
	switch status {
	case domain.SaleCompleted, domain.SaleRefunded, domain.SalePartialRefund, domain.SaleCancelled, domain.SalePending:
		return true
	default:
		return false
	}
}

// normalizePayments fills defaults and returns the total of completed
// payments.
func normalizePayments(in []domain.Payment) ([]domain.Payment, int64, error) {
	out := make([]domain.Payment, 0, len(in))
	var paid int64
	for _, p := range in {
		p.Method = domain.TenderMethod(strings.ToUpper(strings.TrimSpace(string(p.Method))))
		if p.Method == "" {
			return nil, 0, fmt.Errorf("%w: payment method is required", store.ErrValidation)
		}
		if p.AmountCents < 0 || p.ChangeCents < 0 {
			return nil, 0, fmt.Errorf("%w: payment amounts must not be negative", store.ErrValidation)
		}
		if p.Status == "" {
			p.Status = domain.PaymentCompleted
		}
		if p.ID == "" {
			p.ID = xid.New("pay")
		}
		if p.Status == domain.PaymentCompleted {
			paid += p.AmountCents
		}
		out = append(out, p)
	}
	return out, paid, nil
}
