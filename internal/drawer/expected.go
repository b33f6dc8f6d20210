package drawer

import "cianbox-pos/backend/internal/domain"

// ExpectedCash returns what should physically be in the drawer: the opening
// float, plus net cash taken on completed sales, plus or minus every movement.
//
// A session opened by a shift transfer carries its float twice in the ledger,
// once as the opening amount and once as the TRANSFER_IN that references the
// previous session. Only the opening amount is counted.
func ExpectedCash(session domain.CashSession, sales []domain.Sale, movements []domain.CashMovement) int64 {
	expected := session.OpeningCents
	for _, sale := range sales {
		if sale.Status != domain.SaleCompleted {
			continue
		}
		for _, payment := range sale.Payments {
			if payment.Method == domain.TenderCash && payment.Status == domain.PaymentCompleted {
				expected += payment.AmountCents
			}
		}
	}
	for _, m := range movements {
		if isOpeningCarry(session, m) {
			continue
		}
		expected += m.SignedCents()
	}
	return expected
}

func isOpeningCarry(session domain.CashSession, m domain.CashMovement) bool {
	return m.Type == domain.MovementTransferIn &&
		session.PreviousSessionID != "" &&
		m.Reference == session.PreviousSessionID
}
