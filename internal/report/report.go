package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/currency"

	"cianbox-pos/backend/internal/domain"
)

const (
	SheetSummary   = "Summary"
	SheetMovements = "Movements"
	SheetCounts    = "Counts"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SessionReport is everything exported for one cash session.
type SessionReport struct {
	Session   domain.CashSession
	Summary   domain.SessionSummary
	Movements []domain.CashMovement
	Counts    []domain.CashCount
}

// Writer renders session reports as xlsx workbooks in one currency.
type Writer struct {
	unit  currency.Unit
	scale int
}

func NewWriter(unit currency.Unit) *Writer {
	scale, _ := currency.Standard.Rounding(unit)
	return &Writer{unit: unit, scale: scale}
}

func (w *Writer) Currency() currency.Unit {
	return w.unit
}

// Amount converts centavos to the currency's major unit.
func (w *Writer) Amount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2).Round(int32(w.scale))
}

func (w *Writer) FormatAmount(cents int64) string {
	return w.Amount(cents).StringFixed(int32(w.scale))
}

func Filename(session domain.CashSession) string {
	name := strings.NewReplacer("/", "-", " ", "-").Replace(session.SequenceNumber)
	if name == "" {
		name = session.ID
	}
	return fmt.Sprintf("cash-session-%s.xlsx", name)
}

func (w *Writer) Write(out io.Writer, r SessionReport) error {
	f, err := w.Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

func (w *Writer) Workbook(r SessionReport) (*excelize.File, error) {
	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, sheet := range []string{SheetMovements, SheetCounts} {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}
	}

	b := &builder{f: f, w: w, headerStyle: headerStyle}
	b.summary(r.Session, r.Summary)
	b.movements(r.Movements)
	b.counts(r.Counts)
	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// builder keeps the first cell error so sheet writers stay linear.
type builder struct {
	f           *excelize.File
	w           *Writer
	headerStyle int
	err         error
}

func (b *builder) set(sheet string, col int, row int, value any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellValue(sheet, cell, value)
}

func (b *builder) money(sheet string, col int, row int, cents int64) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellFloat(sheet, cell, b.w.Amount(cents).InexactFloat64(), b.w.scale, 64)
}

func (b *builder) headers(sheet string, headers []string) {
	for i, h := range headers {
		b.set(sheet, i+1, 1, h)
	}
	if b.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellStyle(sheet, "A1", last, b.headerStyle)
}

func (b *builder) summary(session domain.CashSession, summary domain.SessionSummary) {
	code := b.w.unit.String()
	b.headers(SheetSummary, []string{"Field", "Value"})

	text := [][2]string{
		{"Session", session.ID},
		{"Sequence", session.SequenceNumber},
		{"Till", session.TillCode},
		{"Cashier", session.CashierID},
		{"Status", string(summary.Status)},
		{"Opened at", formatTime(&session.OpenedAt)},
		{"Closed at", formatTime(session.ClosedAt)},
		{"Previous session", session.PreviousSessionID},
		{"Currency", code},
	}
	row := 2
	for _, kv := range text {
		b.set(SheetSummary, 1, row, kv[0])
		b.set(SheetSummary, 2, row, kv[1])
		row++
	}

	totals := summary.Totals
	amounts := []struct {
		label string
		cents int64
	}{
		{"Opening", summary.OpeningCents},
		{"Expected", summary.ExpectedCents},
		{"Closing", summary.ClosingCents},
		{"Difference", summary.DifferenceCents},
		{"Deposits", summary.DepositsCents},
		{"Withdrawals", summary.WithdrawalsCents},
		{"Cash sales", totals.CashCents},
		{"Debit", totals.DebitCents},
		{"Credit", totals.CreditCents},
		{"QR", totals.QRCents},
		{"Wallet point", totals.WalletCents},
		{"Transfer", totals.TransferCents},
		{"Other tenders", totals.OtherCents},
		{"Sales total", totals.SalesCents},
		{"Refunds total", totals.RefundsCents},
	}
	for _, a := range amounts {
		b.set(SheetSummary, 1, row, fmt.Sprintf("%s (%s)", a.label, code))
		b.money(SheetSummary, 2, row, a.cents)
		row++
	}

	b.set(SheetSummary, 1, row, "Difference type")
	b.set(SheetSummary, 2, row, string(summary.DifferenceType))
	row++
	b.set(SheetSummary, 1, row, "Sales")
	b.set(SheetSummary, 2, row, totals.SalesCount)
	row++
	b.set(SheetSummary, 1, row, "Refunds")
	b.set(SheetSummary, 2, row, totals.RefundsCount)

	if b.err == nil {
		b.err = b.f.SetColWidth(SheetSummary, "A", "A", 24)
	}
	if b.err == nil {
		b.err = b.f.SetColWidth(SheetSummary, "B", "B", 32)
	}
}

func (b *builder) movements(movements []domain.CashMovement) {
	b.headers(SheetMovements, []string{"Created at", "Type", "Reason", "Amount", "Signed", "Created by", "Authorized by", "Reference", "Description"})
	for i, m := range movements {
		row := i + 2
		b.set(SheetMovements, 1, row, formatTime(&m.CreatedAt))
		b.set(SheetMovements, 2, row, string(m.Type))
		b.set(SheetMovements, 3, row, string(m.Reason))
		b.money(SheetMovements, 4, row, m.AmountCents)
		b.money(SheetMovements, 5, row, m.SignedCents())
		b.set(SheetMovements, 6, row, m.CreatedBy)
		b.set(SheetMovements, 7, row, m.AuthorizedBy)
		b.set(SheetMovements, 8, row, m.Reference)
		b.set(SheetMovements, 9, row, m.Description)
	}
	b.freezeHeader(SheetMovements, "A1:I1")
}

func (b *builder) counts(counts []domain.CashCount) {
	b.headers(SheetCounts, []string{"Created at", "Type", "Bills", "Coins", "Vouchers", "Checks", "Other", "Total", "Expected", "Difference", "Difference type", "Counted by", "Verified by"})
	for i, c := range counts {
		row := i + 2
		b.set(SheetCounts, 1, row, formatTime(&c.CreatedAt))
		b.set(SheetCounts, 2, row, string(c.Type))
		b.money(SheetCounts, 3, row, c.BillsCents)
		b.money(SheetCounts, 4, row, c.CoinsCents)
		b.money(SheetCounts, 5, row, c.VouchersCents)
		b.money(SheetCounts, 6, row, c.ChecksCents)
		b.money(SheetCounts, 7, row, c.OtherCents)
		b.money(SheetCounts, 8, row, c.TotalCents)
		b.money(SheetCounts, 9, row, c.ExpectedCents)
		b.money(SheetCounts, 10, row, c.DifferenceCents)
		b.set(SheetCounts, 11, row, string(c.DifferenceType))
		b.set(SheetCounts, 12, row, c.CountedBy)
		b.set(SheetCounts, 13, row, c.VerifiedBy)
	}
	b.freezeHeader(SheetCounts, "A1:M1")
}

func (b *builder) freezeHeader(sheet string, headerRange string) {
	if b.err != nil {
		return
	}
	if err := b.f.AutoFilter(sheet, headerRange, []excelize.AutoFilterOptions{}); err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
