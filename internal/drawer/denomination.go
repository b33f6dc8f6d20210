package drawer

import "cianbox-pos/backend/internal/domain"

type CashTotals struct {
	BillsCents int64 `json:"bills_cents"`
	CoinsCents int64 `json:"coins_cents"`
	CashCents  int64 `json:"cash_cents"`
}

// CountCash converts denomination quantities into cash totals.
func CountCash(bills domain.BillCounts, coins domain.CoinCounts) CashTotals {
	var totals CashTotals
	for i, n := range bills {
		totals.BillsCents += int64(n) * domain.BillFaceValues[i] * domain.CentsPerUnit
	}
	for i, n := range coins {
		totals.CoinsCents += int64(n) * domain.CoinFaceValues[i] * domain.CentsPerUnit
	}
	totals.CashCents = totals.BillsCents + totals.CoinsCents
	return totals
}
