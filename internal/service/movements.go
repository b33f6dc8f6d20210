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

func (s *Service) Deposit(ctx context.Context, sessionID string, req domain.DepositRequest) (domain.CashMovement, error) {
	return s.recordMovement(ctx, sessionID, movementInput{
		Type:        domain.MovementDeposit,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
		Description: req.Description,
		Reference:   req.Reference,
	})
}

func (s *Service) Withdraw(ctx context.Context, sessionID string, req domain.WithdrawRequest) (domain.CashMovement, error) {
	return s.recordMovement(ctx, sessionID, movementInput{
		Type:          domain.MovementWithdrawal,
		AmountCents:   req.AmountCents,
		Reason:        req.Reason,
		Description:   req.Description,
		Reference:     req.Reference,
		Destination:   req.Destination,
		AuthorizedBy:  req.AuthorizedBy,
		RequiresAuth:  true,
		LimitExpected: true,
	})
}

// Adjust records a correction to the drawer. Outbound adjustments follow the
// withdrawal rules; inbound ones only check an authorizer when one is given.
func (s *Service) Adjust(ctx context.Context, sessionID string, req domain.AdjustmentRequest) (domain.CashMovement, error) {
	in := movementInput{
		AmountCents:  req.AmountCents,
		Reason:       req.Reason,
		Description:  req.Description,
		AuthorizedBy: req.AuthorizedBy,
	}
	switch strings.ToLower(strings.TrimSpace(req.Direction)) {
	case "in":
		in.Type = domain.MovementAdjustmentIn
	case "out":
		in.Type = domain.MovementAdjustmentOut
		in.RequiresAuth = true
		in.LimitExpected = true
	default:
		return domain.CashMovement{}, fmt.Errorf("%w: direction must be in or out", store.ErrValidation)
	}
	return s.recordMovement(ctx, sessionID, in)
}

type movementInput struct {
	Type          domain.MovementType
	AmountCents   int64
	Reason        domain.ReasonCode
	Description   string
	Reference     string
	Destination   string
	AuthorizedBy  string
	RequiresAuth  bool
	LimitExpected bool
}

func (in movementInput) validate() error {
	if in.AmountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}
	if in.Reason == domain.ReasonShiftTransfer || !in.Reason.AllowedFor(in.Type) {
		return fmt.Errorf("%w: reason %q is not valid for %s", store.ErrValidation, in.Reason, in.Type)
	}
	if in.RequiresAuth && strings.TrimSpace(in.AuthorizedBy) == "" {
		return fmt.Errorf("%w: %s requires an authorizer", store.ErrUnauthorized, in.Type)
	}
	return nil
}

func (s *Service) recordMovement(ctx context.Context, sessionID string, in movementInput) (domain.CashMovement, error) {
	actor, err := s.requireActor(ctx)
	if err != nil {
		return domain.CashMovement{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Reference = strings.TrimSpace(in.Reference)
	in.Destination = strings.TrimSpace(in.Destination)
	in.AuthorizedBy = strings.TrimSpace(in.AuthorizedBy)
	if err := in.validate(); err != nil {
		return domain.CashMovement{}, err
	}

	var movement domain.CashMovement
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		session, err := lockOperable(ctx, tx, actor, sessionID)
		if err != nil {
			return err
		}
		if _, err := transition(*session, domain.ActionMovement); err != nil {
			return err
		}
		if in.AuthorizedBy != "" {
			if err := checkAuthorizer(ctx, tx, actor.TenantID, in.AuthorizedBy); err != nil {
				return err
			}
		}
		if in.LimitExpected {
			expected, err := expectedCash(ctx, tx, *session)
			if err != nil {
				return err
			}
			if in.AmountCents > expected {
				return fmt.Errorf("%w: amount %d exceeds expected cash %d", store.ErrUnauthorized, in.AmountCents, expected)
			}
		}

		movement = domain.CashMovement{
			ID:                    xid.New("mv"),
			SessionID:             session.ID,
			TenantID:              session.TenantID,
			Type:                  in.Type,
			AmountCents:           in.AmountCents,
			Reason:                in.Reason,
			Description:           in.Description,
			Reference:             in.Reference,
			Destination:           in.Destination,
			CreatedBy:             actor.UserID,
			AuthorizedBy:          in.AuthorizedBy,
			RequiresAuthorization: in.RequiresAuth,
			CreatedAt:             s.now(),
		}
		return tx.InsertMovement(ctx, movement)
	})
	if err != nil {
		return domain.CashMovement{}, err
	}

	s.logAudit(ctx, actor.TenantID, "cash_movement_"+strings.ToLower(string(movement.Type)), "cash_session", movement.SessionID, fmt.Sprintf("movement=%s,amount=%d,reason=%s,authorized_by=%s", movement.ID, movement.AmountCents, movement.Reason, movement.AuthorizedBy))
	return movement, nil
}

// checkAuthorizer verifies that userID is an active user of the tenant who
// holds the cash movement permission.
func checkAuthorizer(ctx context.Context, r store.Reader, tenantID string, userID string) error {
	user, err := r.GetUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: authorizer %s not found", store.ErrUnauthorized, userID)
		}
		return err
	}
	if !user.Active {
		return fmt.Errorf("%w: authorizer %s is inactive", store.ErrUnauthorized, user.Username)
	}
	if !user.HasPermission(domain.PermissionCashMovements) {
		return fmt.Errorf("%w: authorizer %s lacks %s", store.ErrUnauthorized, user.Username, domain.PermissionCashMovements)
	}
	return nil
}
