package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("CIANBOX_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set CIANBOX_TEST_DATABASE_URL to run postgres integration tests")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestActiveSessionPerTillIsUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	tenantID := fmt.Sprintf("tenant-it-%d", stamp)
	tillID := fmt.Sprintf("till-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_movements WHERE tenant_id = $1`, tenantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_sessions WHERE tenant_id = $1`, tenantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM tills WHERE tenant_id = $1`, tenantID)
	})

	if err := s.CreateTill(ctx, domain.Till{ID: tillID, TenantID: tenantID, Code: "IT1", Name: "Integration", Active: true}); err != nil {
		t.Fatalf("create till: %v", err)
	}

	now := time.Now().UTC()
	first := domain.CashSession{
		ID: fmt.Sprintf("cs-it-a-%d", stamp), TenantID: tenantID, TillID: tillID, TillCode: "IT1",
		CashierID: "cashier-a", SequenceNumber: fmt.Sprintf("IT1-%d-001", stamp), Status: domain.SessionOpen,
		OpeningCents: 500000, OpenedAt: now, OpenedBy: "cashier-a",
	}
	if err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertSession(ctx, first); err != nil {
			return err
		}
		return tx.InsertMovement(ctx, domain.CashMovement{
			ID: fmt.Sprintf("mv-it-%d", stamp), SessionID: first.ID, TenantID: tenantID,
			Type: domain.MovementDeposit, AmountCents: 10000, Reason: domain.ReasonChangeFund,
			CreatedBy: "cashier-a", CreatedAt: now,
		})
	}); err != nil {
		t.Fatalf("insert first session: %v", err)
	}

	second := first
	second.ID = fmt.Sprintf("cs-it-b-%d", stamp)
	second.CashierID = "cashier-b"
	second.SequenceNumber = fmt.Sprintf("IT1-%d-002", stamp)
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertSession(ctx, second)
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for second active session on till, got %v", err)
	}

	active, err := s.FindActiveSessionByTill(ctx, tenantID, tillID)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if active.ID != first.ID {
		t.Fatalf("expected active session %s, got %s", first.ID, active.ID)
	}

	movements, err := s.ListSessionMovements(ctx, tenantID, first.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 || movements[0].AmountCents != 10000 {
		t.Fatalf("expected one 10000 movement, got %+v", movements)
	}

	closedAt := now.Add(time.Hour)
	if err := s.WithinTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockSession(ctx, tenantID, first.ID)
		if err != nil {
			return err
		}
		locked.Status = domain.SessionClosed
		locked.ClosedAt = &closedAt
		locked.ClosedBy = "cashier-a"
		return tx.UpdateSession(ctx, *locked)
	}); err != nil {
		t.Fatalf("close first session: %v", err)
	}

	if err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertSession(ctx, second)
	}); err != nil {
		t.Fatalf("expected till to accept a new session after close, got %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	tenantID := fmt.Sprintf("tenant-rb-%d", stamp)
	tillID := fmt.Sprintf("till-rb-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_sessions WHERE tenant_id = $1`, tenantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM tills WHERE tenant_id = $1`, tenantID)
	})

	if err := s.CreateTill(ctx, domain.Till{ID: tillID, TenantID: tenantID, Code: "RB1", Name: "Rollback", Active: true}); err != nil {
		t.Fatalf("create till: %v", err)
	}

	session := domain.CashSession{
		ID: fmt.Sprintf("cs-rb-%d", stamp), TenantID: tenantID, TillID: tillID, TillCode: "RB1",
		CashierID: "cashier-a", SequenceNumber: fmt.Sprintf("RB1-%d-001", stamp), Status: domain.SessionOpen,
		OpenedAt: time.Now().UTC(), OpenedBy: "cashier-a",
	}
	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertSession(ctx, session); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}

	if _, err := s.GetSession(ctx, tenantID, session.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rolled back session to be absent, got %v", err)
	}
}
