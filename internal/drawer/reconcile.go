package drawer

import "cianbox-pos/backend/internal/domain"

type Reconciliation struct {
	CashTotals
	VouchersCents   int64
	ChecksCents     int64
	OtherCents      int64
	TotalCents      int64
	ExpectedCents   int64
	DifferenceCents int64
	DifferenceType  domain.DifferenceType
}

// Reconcile compares a physical count against the expected amount. Amounts
// are integers, so a zero difference is an exact match.
func Reconcile(count domain.DenominationCount, expectedCents int64) Reconciliation {
	cash := CountCash(count.Bills, count.Coins)
	total := cash.CashCents + count.VouchersCents + count.ChecksCents + count.OtherCents
	diff := total - expectedCents
	return Reconciliation{
		CashTotals:      cash,
		VouchersCents:   count.VouchersCents,
		ChecksCents:     count.ChecksCents,
		OtherCents:      count.OtherCents,
		TotalCents:      total,
		ExpectedCents:   expectedCents,
		DifferenceCents: diff,
		DifferenceType:  Classify(diff),
	}
}

func Classify(differenceCents int64) domain.DifferenceType {
	switch {
	case differenceCents > 0:
		return domain.DifferenceSurplus
	case differenceCents < 0:
		return domain.DifferenceShortage
	default:
		return domain.DifferenceNone
	}
}

// ApplyTo copies the reconciliation figures into a count record.
func (r Reconciliation) ApplyTo(count *domain.CashCount) {
	count.BillsCents = r.BillsCents
	count.CoinsCents = r.CoinsCents
	count.CashCents = r.CashCents
	count.VouchersCents = r.VouchersCents
	count.ChecksCents = r.ChecksCents
	count.OtherCents = r.OtherCents
	count.TotalCents = r.TotalCents
	count.ExpectedCents = r.ExpectedCents
	count.DifferenceCents = r.DifferenceCents
	count.DifferenceType = r.DifferenceType
}
