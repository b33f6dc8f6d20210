package drawer

import "cianbox-pos/backend/internal/domain"

// AggregatePayments builds the per-tender snapshot for a session's sales.
func AggregatePayments(sales []domain.Sale) domain.PaymentTotals {
	var totals domain.PaymentTotals
	for _, sale := range sales {
		switch sale.Status {
		case domain.SaleCompleted:
			totals.SalesCount++
			totals.SalesCents += sale.TotalCents
			for _, payment := range sale.Payments {
				if payment.Status != domain.PaymentCompleted {
					continue
				}
				addToBucket(&totals, payment.Method, payment.AmountCents)
			}
		case domain.SaleRefunded, domain.SalePartialRefund:
			totals.RefundsCount++
			totals.RefundsCents += sale.TotalCents
		case domain.SaleCancelled:
			totals.CancelsCount++
		}
	}
	return totals
}

func addToBucket(totals *domain.PaymentTotals, method domain.TenderMethod, amount int64) {
	switch method {
	case domain.TenderCash:
		totals.CashCents += amount
	case domain.TenderDebitCard:
		totals.DebitCents += amount
	case domain.TenderCreditCard:
		totals.CreditCents += amount
	case domain.TenderQR:
		totals.QRCents += amount
	case domain.TenderWalletPoint:
		totals.WalletCents += amount
	case domain.TenderTransfer:
		totals.TransferCents += amount
	default:
		totals.OtherCents += amount
	}
}

// MovementTotals splits manual movements into deposits and withdrawals.
// Transfers are not counted on either side.
func MovementTotals(movements []domain.CashMovement) (depositsCents int64, withdrawalsCents int64) {
	for _, m := range movements {
		switch m.Type {
		case domain.MovementDeposit:
			depositsCents += m.AmountCents
		case domain.MovementWithdrawal:
			withdrawalsCents += m.AmountCents
		}
	}
	return depositsCents, withdrawalsCents
}
