package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cianbox-pos/backend/internal/cache"
	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/store/memory"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService() *Service {
	svc := New(memory.NewSeeded(), cache.NoopSummaryCache{}, memory.DemoTenantID, time.Minute)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func actorCtx(userID string, role string) context.Context {
	return WithActor(context.Background(), domain.Actor{
		UserID:   userID,
		Username: userID,
		Role:     role,
		TenantID: memory.DemoTenantID,
	})
}

func cashierCtx() context.Context {
	return actorCtx("user-cashier", domain.RoleCashier)
}

func cashier2Ctx() context.Context {
	return actorCtx("user-cashier2", domain.RoleCashier)
}

// pesos builds a denomination count from whole-peso bill quantities.
func pesos(pairs map[int64]int) domain.DenominationCount {
	var count domain.DenominationCount
	for face, n := range pairs {
		for i, f := range domain.BillFaceValues {
			if f == face {
				count.Bills[i] = n
			}
		}
	}
	return count
}

// count5200 is 2x2000 + 1x1000 + 1x200 pesos.
func count5200() domain.DenominationCount {
	return pesos(map[int64]int{2000: 2, 1000: 1, 200: 1})
}

func cashSale(till string, amount int64) domain.RecordSaleRequest {
	return domain.RecordSaleRequest{
		TillID:     till,
		TotalCents: amount,
		Payments:   []domain.Payment{{Method: domain.TenderCash, AmountCents: amount}},
	}
}

func mustOpen(t *testing.T, svc *Service, ctx context.Context, till string, opening int64) domain.CashSession {
	t.Helper()
	session, err := svc.OpenSession(ctx, domain.OpenSessionRequest{TillID: till, OpeningCents: opening})
	if err != nil {
		t.Fatalf("open session failed: %v", err)
	}
	return session
}

func mustExpected(t *testing.T, svc *Service, ctx context.Context, sessionID string) int64 {
	t.Helper()
	resp, err := svc.ExpectedCash(ctx, sessionID)
	if err != nil {
		t.Fatalf("expected cash failed: %v", err)
	}
	return resp.ExpectedCents
}

// openWithSaleAndWithdrawal leaves till-01 at 520000 expected.
func openWithSaleAndWithdrawal(t *testing.T, svc *Service) domain.CashSession {
	t.Helper()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 500000)
	if _, err := svc.RecordSale(ctx, cashSale("till-01", 120000)); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if _, err := svc.Withdraw(ctx, session.ID, domain.WithdrawRequest{
		AmountCents:  100000,
		Reason:       domain.ReasonSafeDeposit,
		AuthorizedBy: "user-supervisor",
	}); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	return session
}

func TestOpenSessionAssignsSequencePerTillAndDay(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	first := mustOpen(t, svc, ctx, "till-01", 500000)
	if first.SequenceNumber != "T01-20260314-001" {
		t.Fatalf("unexpected sequence %s", first.SequenceNumber)
	}
	if first.Status != domain.SessionOpen || first.CashierID != "user-cashier" {
		t.Fatalf("unexpected session %+v", first)
	}
	if _, err := svc.CloseSession(ctx, first.ID, domain.CloseSessionRequest{}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	second := mustOpen(t, svc, ctx, "till-01", 0)
	if second.SequenceNumber != "T01-20260314-002" {
		t.Fatalf("expected second sequence of the day, got %s", second.SequenceNumber)
	}
}

func TestOpenSessionValidatesInput(t *testing.T) {
	svc := newTestService()

	_, err := svc.OpenSession(cashierCtx(), domain.OpenSessionRequest{TillID: "till-01", OpeningCents: -1})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for negative opening, got %v", err)
	}
	_, err = svc.OpenSession(cashierCtx(), domain.OpenSessionRequest{TillID: "till-99"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown till, got %v", err)
	}
	_, err = svc.OpenSession(context.Background(), domain.OpenSessionRequest{TillID: "till-01"})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without actor, got %v", err)
	}
}

func TestOpenSessionConflictsOnBusyTillUntilTerminal(t *testing.T) {
	svc := newTestService()

	first := mustOpen(t, svc, cashierCtx(), "till-01", 500000)
	if _, err := svc.SuspendSession(cashierCtx(), first.ID); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}

	_, err := svc.OpenSession(cashier2Ctx(), domain.OpenSessionRequest{TillID: "till-01"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on suspended till, got %v", err)
	}

	if _, err := svc.CloseSession(cashierCtx(), first.ID, domain.CloseSessionRequest{}); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := svc.OpenSession(cashier2Ctx(), domain.OpenSessionRequest{TillID: "till-01"}); err != nil {
		t.Fatalf("expected open after close to succeed, got %v", err)
	}
}

func TestCashierCannotHoldTwoSessions(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	mustOpen(t, svc, ctx, "till-01", 0)
	_, err := svc.OpenSession(ctx, domain.OpenSessionRequest{TillID: "till-02"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for second session of the same cashier, got %v", err)
	}
}

func TestConcurrentOpensOnSameTillHaveOneWinner(t *testing.T) {
	svc := newTestService()

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := actorCtx(fmt.Sprintf("cashier-%d", i), domain.RoleCashier)
			_, err := svc.OpenSession(ctx, domain.OpenSessionRequest{TillID: "till-01", OpeningCents: 1000})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestConcurrentOpensBySameCashierHaveOneWinner(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, nil, memory.DemoTenantID, time.Minute)
	for i := 3; i <= 8; i++ {
		if err := repo.CreateTill(context.Background(), domain.Till{
			ID: fmt.Sprintf("till-%02d", i), TenantID: memory.DemoTenantID, Code: fmt.Sprintf("T%02d", i), Active: true,
		}); err != nil {
			t.Fatalf("create till: %v", err)
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.OpenSession(cashierCtx(), domain.OpenSessionRequest{TillID: fmt.Sprintf("till-%02d", i)})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected one session for the cashier, got %d", wins)
	}
}

func TestExpectedCashScenario(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	session := mustOpen(t, svc, ctx, "till-01", 500000)
	if _, err := svc.RecordSale(ctx, cashSale("till-01", 120000)); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if got := mustExpected(t, svc, ctx, session.ID); got != 620000 {
		t.Fatalf("expected 620000 after cash sale, got %d", got)
	}

	movement, err := svc.Withdraw(ctx, session.ID, domain.WithdrawRequest{
		AmountCents:  100000,
		Reason:       domain.ReasonSafeDeposit,
		AuthorizedBy: "user-supervisor",
	})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if !movement.RequiresAuthorization || movement.AuthorizedBy != "user-supervisor" {
		t.Fatalf("expected authorized withdrawal, got %+v", movement)
	}

	first := mustExpected(t, svc, ctx, session.ID)
	second := mustExpected(t, svc, ctx, session.ID)
	if first != 520000 || second != first {
		t.Fatalf("expected stable 520000, got %d then %d", first, second)
	}

	_, err = svc.Withdraw(ctx, session.ID, domain.WithdrawRequest{
		AmountCents:  600000,
		Reason:       domain.ReasonSafeDeposit,
		AuthorizedBy: "user-supervisor",
	})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected withdrawal above expected cash to fail authorization, got %v", err)
	}
	if got := mustExpected(t, svc, ctx, session.ID); got != 520000 {
		t.Fatalf("rejected withdrawal must not change expected cash, got %d", got)
	}
}

func TestWithdrawRequiresPermissionHoldingAuthorizer(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 500000)

	cases := []struct {
		name         string
		authorizedBy string
	}{
		{name: "missing", authorizedBy: ""},
		{name: "unknown user", authorizedBy: "user-ghost"},
		{name: "no permission", authorizedBy: "user-cashier2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Withdraw(ctx, session.ID, domain.WithdrawRequest{
				AmountCents:  1000,
				Reason:       domain.ReasonExpense,
				AuthorizedBy: tc.authorizedBy,
			})
			if !errors.Is(err, store.ErrUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}

	if _, err := svc.Withdraw(ctx, session.ID, domain.WithdrawRequest{
		AmountCents:  1000,
		Reason:       domain.ReasonExpense,
		AuthorizedBy: "user-admin",
	}); err != nil {
		t.Fatalf("expected admin to authorize withdrawal, got %v", err)
	}
}

func TestMovementReasonMustMatchDirection(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 0)

	_, err := svc.Deposit(ctx, session.ID, domain.DepositRequest{AmountCents: 5000, Reason: domain.ReasonBankDeposit})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for outbound reason on deposit, got %v", err)
	}
	_, err = svc.Deposit(ctx, session.ID, domain.DepositRequest{AmountCents: 5000, Reason: domain.ReasonShiftTransfer})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected shift transfer reason to be reserved, got %v", err)
	}
	_, err = svc.Deposit(ctx, session.ID, domain.DepositRequest{AmountCents: 0, Reason: domain.ReasonChangeFund})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	if _, err := svc.Deposit(ctx, session.ID, domain.DepositRequest{AmountCents: 5000, Reason: domain.ReasonChangeFund}); err != nil {
		t.Fatalf("change fund deposit failed: %v", err)
	}
	if got := mustExpected(t, svc, ctx, session.ID); got != 5000 {
		t.Fatalf("expected change fund to add to the drawer, got %d", got)
	}
}

func TestAdjustmentsMoveExpectedCash(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 10000)

	if _, err := svc.Adjust(ctx, session.ID, domain.AdjustmentRequest{Direction: "in", AmountCents: 500, Reason: domain.ReasonCorrection}); err != nil {
		t.Fatalf("adjust in failed: %v", err)
	}
	_, err := svc.Adjust(ctx, session.ID, domain.AdjustmentRequest{Direction: "out", AmountCents: 200, Reason: domain.ReasonCorrection})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected outbound adjustment without authorizer to fail, got %v", err)
	}
	if _, err := svc.Adjust(ctx, session.ID, domain.AdjustmentRequest{Direction: "out", AmountCents: 200, Reason: domain.ReasonCountDifference, AuthorizedBy: "user-supervisor"}); err != nil {
		t.Fatalf("adjust out failed: %v", err)
	}
	_, err = svc.Adjust(ctx, session.ID, domain.AdjustmentRequest{Direction: "sideways", AmountCents: 1, Reason: domain.ReasonOther})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown direction, got %v", err)
	}

	if got := mustExpected(t, svc, ctx, session.ID); got != 10300 {
		t.Fatalf("expected 10300 after adjustments, got %d", got)
	}
}

func TestCloseWithExactCount(t *testing.T) {
	svc := newTestService()
	session := openWithSaleAndWithdrawal(t, svc)
	count := count5200()

	resp, err := svc.CloseSession(cashierCtx(), session.ID, domain.CloseSessionRequest{Count: &count, Notes: "end of day"})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if resp.Session.Status != domain.SessionClosed {
		t.Fatalf("expected CLOSED, got %s", resp.Session.Status)
	}
	if resp.Count == nil || resp.Count.Type != domain.CountClosing {
		t.Fatalf("expected closing count, got %+v", resp.Count)
	}
	if resp.Count.DifferenceCents != 0 || resp.Count.DifferenceType != domain.DifferenceNone {
		t.Fatalf("expected no difference, got %d %q", resp.Count.DifferenceCents, resp.Count.DifferenceType)
	}
	if *resp.Session.ClosingCents != 520000 || *resp.Session.ExpectedCents != 520000 || *resp.Session.DifferenceCents != 0 {
		t.Fatalf("unexpected closing snapshot %+v", resp.Session)
	}
	if resp.Summary.Totals.CashCents != 120000 || resp.Summary.Totals.SalesCount != 1 {
		t.Fatalf("unexpected totals %+v", resp.Summary.Totals)
	}
	if resp.Summary.WithdrawalsCents != 100000 || resp.Summary.DepositsCents != 0 {
		t.Fatalf("unexpected movement totals %+v", resp.Summary)
	}
	if resp.Session.ClosingNotes != "end of day" {
		t.Fatalf("expected closing notes, got %q", resp.Session.ClosingNotes)
	}
}

func TestCloseWithSurplusCount(t *testing.T) {
	svc := newTestService()
	session := openWithSaleAndWithdrawal(t, svc)
	count := pesos(map[int64]int{2000: 2, 1000: 1, 200: 1, 100: 1})

	resp, err := svc.CloseSession(cashierCtx(), session.ID, domain.CloseSessionRequest{Count: &count})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if resp.Summary.DifferenceCents != 10000 || resp.Summary.DifferenceType != domain.DifferenceSurplus {
		t.Fatalf("expected +10000 SURPLUS, got %d %q", resp.Summary.DifferenceCents, resp.Summary.DifferenceType)
	}
	if resp.Summary.ClosingCents != 530000 {
		t.Fatalf("expected closing 530000, got %d", resp.Summary.ClosingCents)
	}
}

func TestCloseWithoutCountUsesExpected(t *testing.T) {
	svc := newTestService()
	session := openWithSaleAndWithdrawal(t, svc)

	resp, err := svc.CloseSession(cashierCtx(), session.ID, domain.CloseSessionRequest{})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if resp.Count != nil {
		t.Fatalf("expected no count, got %+v", resp.Count)
	}
	if resp.Summary.ClosingCents != 520000 || resp.Summary.DifferenceCents != 0 {
		t.Fatalf("expected closing at expected amount, got %+v", resp.Summary)
	}

	_, err = svc.CloseSession(cashierCtx(), session.ID, domain.CloseSessionRequest{})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected state error closing a closed session, got %v", err)
	}
}

func TestTransferHandsDrawerToNextCashier(t *testing.T) {
	svc := newTestService()
	session := openWithSaleAndWithdrawal(t, svc)

	resp, err := svc.TransferSession(cashierCtx(), session.ID, domain.TransferSessionRequest{
		ToCashierID:   "user-cashier2",
		TransferCents: 520000,
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	closed := resp.ClosedSession
	if closed.Status != domain.SessionTransferred || *closed.ClosingCents != 520000 || *closed.DifferenceCents != 0 {
		t.Fatalf("unexpected source session %+v", closed)
	}
	opened := resp.NewSession
	if opened.Status != domain.SessionOpen || opened.OpeningCents != 520000 || opened.PreviousSessionID != closed.ID {
		t.Fatalf("unexpected receiving session %+v", opened)
	}
	if opened.CashierID != "user-cashier2" || opened.TillID != closed.TillID {
		t.Fatalf("receiving session must be on the same till for the new cashier, got %+v", opened)
	}
	if opened.SequenceNumber != "T01-20260314-002" {
		t.Fatalf("expected next sequence for the till, got %s", opened.SequenceNumber)
	}

	outs, err := svc.ListMovements(actorCtx("user-supervisor", domain.RoleSupervisor), closed.ID)
	if err != nil {
		t.Fatalf("list source movements: %v", err)
	}
	last := outs[len(outs)-1]
	if last.Type != domain.MovementTransferOut || last.AmountCents != 520000 || last.Reason != domain.ReasonShiftTransfer {
		t.Fatalf("expected TRANSFER_OUT of 520000, got %+v", last)
	}
	ins, err := svc.ListMovements(cashier2Ctx(), opened.ID)
	if err != nil {
		t.Fatalf("list receiving movements: %v", err)
	}
	if len(ins) != 1 || ins[0].Type != domain.MovementTransferIn || ins[0].AmountCents != 520000 {
		t.Fatalf("expected one TRANSFER_IN of 520000, got %+v", ins)
	}

	if got := mustExpected(t, svc, cashier2Ctx(), opened.ID); got != 520000 {
		t.Fatalf("receiving drawer must not count the float twice, got %d", got)
	}
	current, err := svc.CurrentSession(cashier2Ctx())
	if err != nil || current.ID != opened.ID {
		t.Fatalf("expected receiving session to be current for cashier2, got %+v %v", current, err)
	}
}

func TestTransferWithCountRecordsTransferCount(t *testing.T) {
	svc := newTestService()
	session := openWithSaleAndWithdrawal(t, svc)
	count := count5200()

	_, err := svc.TransferSession(cashierCtx(), session.ID, domain.TransferSessionRequest{
		ToCashierID:   "user-cashier2",
		TransferCents: 500000,
		Count:         &count,
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	counts, err := svc.ListCounts(actorCtx("user-admin", domain.RoleAdmin), session.ID)
	if err != nil {
		t.Fatalf("list counts: %v", err)
	}
	if len(counts) != 1 || counts[0].Type != domain.CountTransfer || counts[0].TotalCents != 520000 {
		t.Fatalf("expected one TRANSFER count of 520000, got %+v", counts)
	}
	summary, err := svc.Summary(actorCtx("user-admin", domain.RoleAdmin), session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DifferenceCents != -20000 || summary.DifferenceType != domain.DifferenceShortage {
		t.Fatalf("expected -20000 SHORTAGE on handover, got %d %q", summary.DifferenceCents, summary.DifferenceType)
	}
}

func TestTransferIsAllOrNothing(t *testing.T) {
	svc := newTestService()
	session := mustOpen(t, svc, cashierCtx(), "till-01", 500000)
	mustOpen(t, svc, cashier2Ctx(), "till-02", 0)

	_, err := svc.TransferSession(cashierCtx(), session.ID, domain.TransferSessionRequest{
		ToCashierID:   "user-cashier2",
		TransferCents: 500000,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for busy receiving cashier, got %v", err)
	}

	after, err := svc.GetSession(cashierCtx(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if after.Status != domain.SessionOpen || after.ClosingCents != nil {
		t.Fatalf("source session must be untouched, got %+v", after)
	}
	movements, err := svc.ListMovements(cashierCtx(), session.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("expected no movements after failed transfer, got %+v", movements)
	}

	_, err = svc.TransferSession(cashierCtx(), session.ID, domain.TransferSessionRequest{ToCashierID: "user-ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown cashier, got %v", err)
	}
}

func TestStateMachineRejectsInvalidTransitions(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 1000)

	if _, err := svc.ResumeSession(ctx, session.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected state error resuming an open session, got %v", err)
	}
	if _, err := svc.SuspendSession(ctx, session.ID); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if _, err := svc.SuspendSession(ctx, session.ID); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected state error suspending twice, got %v", err)
	}
	if _, err := svc.RecordSale(ctx, cashSale("till-01", 100)); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected sales to be rejected while suspended, got %v", err)
	}
	resumed, err := svc.ResumeSession(ctx, session.ID)
	if err != nil || resumed.Status != domain.SessionOpen {
		t.Fatalf("resume failed: %+v %v", resumed, err)
	}

	if _, err := svc.CloseSession(ctx, session.ID, domain.CloseSessionRequest{}); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := svc.Deposit(ctx, session.ID, domain.DepositRequest{AmountCents: 100, Reason: domain.ReasonOther}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected state error on closed session movement, got %v", err)
	}
	if _, err := svc.TransferSession(ctx, session.ID, domain.TransferSessionRequest{ToCashierID: "user-cashier2"}); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected state error transferring a closed session, got %v", err)
	}
}

func TestCountingReturnsToOpen(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 520000)

	counting, err := svc.BeginCount(ctx, session.ID)
	if err != nil || counting.Status != domain.SessionCounting {
		t.Fatalf("begin count failed: %+v %v", counting, err)
	}
	if _, err := svc.RecordSale(ctx, cashSale("till-01", 100)); !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected sales to be rejected while counting, got %v", err)
	}

	resp, err := svc.RecordCount(ctx, session.ID, domain.CountRequest{Type: domain.CountPartial, DenominationCount: count5200()})
	if err != nil {
		t.Fatalf("record count failed: %v", err)
	}
	if resp.Session.Status != domain.SessionOpen {
		t.Fatalf("expected session back to OPEN, got %s", resp.Session.Status)
	}
	if resp.Count.ExpectedCents != 520000 || resp.Count.DifferenceType != domain.DifferenceNone {
		t.Fatalf("unexpected count %+v", resp.Count)
	}
	if resp.Summary.CountsCount != 1 {
		t.Fatalf("expected summary to include the count, got %d", resp.Summary.CountsCount)
	}

	_, err = svc.RecordCount(ctx, session.ID, domain.CountRequest{Type: domain.CountClosing})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected CLOSING counts to be reserved for close, got %v", err)
	}
	negative := domain.CountRequest{Type: domain.CountAudit}
	negative.Bills[domain.Bill100] = -1
	if _, err := svc.RecordCount(ctx, session.ID, negative); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected negative quantities to be rejected, got %v", err)
	}
}

func TestCashierCannotOperateAnotherCashiersSession(t *testing.T) {
	svc := newTestService()
	session := mustOpen(t, svc, cashierCtx(), "till-01", 0)

	if _, err := svc.SuspendSession(cashier2Ctx(), session.ID); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.SuspendSession(actorCtx("user-supervisor", domain.RoleSupervisor), session.ID); err != nil {
		t.Fatalf("expected supervisor to suspend any session, got %v", err)
	}
}

func TestRecordSaleBucketsTenders(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 0)

	if _, err := svc.RecordSale(ctx, domain.RecordSaleRequest{
		TillID: "till-01",
		Payments: []domain.Payment{
			{Method: "cash", AmountCents: 3000, ChangeCents: 500},
			{Method: domain.TenderDebitCard, AmountCents: 2000},
			{Method: domain.TenderGiftCard, AmountCents: 700},
		},
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.RecordSaleRequest{
		TillID:     "till-01",
		Status:     domain.SaleRefunded,
		TotalCents: 900,
		Payments:   []domain.Payment{{Method: domain.TenderCash, AmountCents: 900}},
	}); err != nil {
		t.Fatalf("record refund failed: %v", err)
	}

	summary, err := svc.Summary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	totals := summary.Totals
	if totals.CashCents != 3000 || totals.DebitCents != 2000 || totals.OtherCents != 700 {
		t.Fatalf("unexpected tender buckets %+v", totals)
	}
	if totals.SalesCount != 1 || totals.SalesCents != 5700 || totals.RefundsCount != 1 || totals.RefundsCents != 900 {
		t.Fatalf("unexpected sale counts %+v", totals)
	}
	if summary.ExpectedCents != 3000 {
		t.Fatalf("expected only completed cash to reach the drawer, got %d", summary.ExpectedCents)
	}
}

type recordingCache struct {
	mu   sync.Mutex
	data map[string]domain.SessionSummary
	sets int
}

func (c *recordingCache) Get(_ context.Context, key string) (*domain.SessionSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *recordingCache) Set(_ context.Context, key string, value *domain.SessionSummary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]domain.SessionSummary)
	}
	c.data[key] = *value
	c.sets++
	return nil
}

func TestSummaryCachesTerminalSessionsOnly(t *testing.T) {
	summaries := &recordingCache{}
	svc := New(memory.NewSeeded(), summaries, memory.DemoTenantID, time.Minute)
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 1000)

	if _, err := svc.Summary(ctx, session.ID); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summaries.sets != 0 {
		t.Fatalf("live session summary must not be cached, got %d sets", summaries.sets)
	}

	if _, err := svc.CloseSession(ctx, session.ID, domain.CloseSessionRequest{}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if summaries.sets != 1 {
		t.Fatalf("expected close to cache the summary, got %d sets", summaries.sets)
	}
	cached, err := svc.Summary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if cached.Status != domain.SessionClosed || cached.ClosingCents != 1000 {
		t.Fatalf("unexpected cached summary %+v", cached)
	}
	if summaries.sets != 1 {
		t.Fatalf("cached read must not write again, got %d sets", summaries.sets)
	}
}

func TestAuditTrailRecordsSessionLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	session := mustOpen(t, svc, ctx, "till-01", 0)
	if _, err := svc.CloseSession(ctx, session.ID, domain.CloseSessionRequest{}); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := svc.ListAuditLogs(ctx, "", 10); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected cashier to be denied audit logs, got %v", err)
	}
	logs, err := svc.ListAuditLogs(actorCtx("user-admin", domain.RoleAdmin), "2026-03-14", 10)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "cash_session_close" || logs[1].Action != "cash_session_open" {
		t.Fatalf("unexpected audit trail %+v", logs)
	}
}
