package domain

type SessionStatus string

const (
	SessionOpen        SessionStatus = "OPEN"
	SessionSuspended   SessionStatus = "SUSPENDED"
	SessionCounting    SessionStatus = "COUNTING"
	SessionClosed      SessionStatus = "CLOSED"
	SessionTransferred SessionStatus = "TRANSFERRED"
)

// ActiveSessionStatuses are the non-terminal statuses guarded by the
// one-session-per-till and one-session-per-cashier constraints.
var ActiveSessionStatuses = []SessionStatus{SessionOpen, SessionSuspended, SessionCounting}

func (s SessionStatus) Terminal() bool {
	return s == SessionClosed || s == SessionTransferred
}

func (s SessionStatus) Active() bool {
	switch s {
	case SessionOpen, SessionSuspended, SessionCounting:
		return true
	default:
		return false
	}
}

func (s SessionStatus) Valid() bool {
	return s.Active() || s.Terminal()
}

type SessionAction string

const (
	ActionSuspend    SessionAction = "suspend"
	ActionResume     SessionAction = "resume"
	ActionBeginCount SessionAction = "begin_count"
	ActionCount      SessionAction = "count"
	ActionClose      SessionAction = "close"
	ActionTransfer   SessionAction = "transfer"
	ActionMovement   SessionAction = "movement"
	ActionSale       SessionAction = "sale"
)

var sessionTransitions = map[SessionAction]map[SessionStatus]SessionStatus{
	ActionSuspend: {
		SessionOpen: SessionSuspended,
	},
	ActionResume: {
		SessionSuspended: SessionOpen,
	},
	ActionBeginCount: {
		SessionOpen:      SessionCounting,
		SessionSuspended: SessionCounting,
	},
	ActionCount: {
		SessionOpen:      SessionOpen,
		SessionSuspended: SessionSuspended,
		SessionCounting:  SessionOpen,
	},
	ActionClose: {
		SessionOpen:      SessionClosed,
		SessionSuspended: SessionClosed,
		SessionCounting:  SessionClosed,
	},
	ActionTransfer: {
		SessionOpen:      SessionTransferred,
		SessionSuspended: SessionTransferred,
	},
	ActionMovement: {
		SessionOpen:      SessionOpen,
		SessionSuspended: SessionSuspended,
		SessionCounting:  SessionCounting,
	},
	ActionSale: {
		SessionOpen: SessionOpen,
	},
}

// NextStatus reports the status a session moves to when action is applied,
// and false when the action is not permitted from the current status.
func NextStatus(current SessionStatus, action SessionAction) (SessionStatus, bool) {
	next, ok := sessionTransitions[action][current]
	return next, ok
}

type MovementType string

const (
	MovementDeposit       MovementType = "DEPOSIT"
	MovementWithdrawal    MovementType = "WITHDRAWAL"
	MovementAdjustmentIn  MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut MovementType = "ADJUSTMENT_OUT"
	MovementTransferIn    MovementType = "TRANSFER_IN"
	MovementTransferOut   MovementType = "TRANSFER_OUT"
)

func (t MovementType) Inbound() bool {
	switch t {
	case MovementDeposit, MovementAdjustmentIn, MovementTransferIn:
		return true
	default:
		return false
	}
}

func (t MovementType) Valid() bool {
	switch t {
	case MovementDeposit, MovementWithdrawal, MovementAdjustmentIn, MovementAdjustmentOut, MovementTransferIn, MovementTransferOut:
		return true
	default:
		return false
	}
}

type ReasonCode string

const (
	ReasonSafeDeposit     ReasonCode = "SAFE_DEPOSIT"
	ReasonBankDeposit     ReasonCode = "BANK_DEPOSIT"
	ReasonSupplierPayment ReasonCode = "SUPPLIER_PAYMENT"
	ReasonExpense         ReasonCode = "EXPENSE"
	ReasonChangeFund      ReasonCode = "CHANGE_FUND"
	ReasonInitialFund     ReasonCode = "INITIAL_FUND"
	ReasonLoanReturn      ReasonCode = "LOAN_RETURN"
	ReasonCorrection      ReasonCode = "CORRECTION"
	ReasonCountDifference ReasonCode = "COUNT_DIFFERENCE"
	ReasonShiftTransfer   ReasonCode = "SHIFT_TRANSFER"
	ReasonOther           ReasonCode = "OTHER"
)

// AllowedFor reports whether a manual movement of type t may carry the reason.
// Fund reasons only bring cash in; deposits to the safe, bank and payouts only
// take cash out. SHIFT_TRANSFER is reserved for the transfer orchestrator.
func (r ReasonCode) AllowedFor(t MovementType) bool {
	switch r {
	case ReasonChangeFund, ReasonInitialFund, ReasonLoanReturn:
		return t.Inbound()
	case ReasonSafeDeposit, ReasonBankDeposit, ReasonSupplierPayment, ReasonExpense:
		return !t.Inbound()
	case ReasonCorrection, ReasonCountDifference, ReasonOther:
		return true
	default:
		return false
	}
}

type CountType string

const (
	CountOpening  CountType = "OPENING"
	CountPartial  CountType = "PARTIAL"
	CountClosing  CountType = "CLOSING"
	CountAudit    CountType = "AUDIT"
	CountTransfer CountType = "TRANSFER"
)

// Manual reports whether the count type can be recorded on its own, outside
// close and transfer.
func (t CountType) Manual() bool {
	switch t {
	case CountOpening, CountPartial, CountAudit:
		return true
	default:
		return false
	}
}

type DifferenceType string

const (
	DifferenceNone     DifferenceType = ""
	DifferenceSurplus  DifferenceType = "SURPLUS"
	DifferenceShortage DifferenceType = "SHORTAGE"
)

type SaleStatus string

const (
	SaleCompleted     SaleStatus = "COMPLETED"
	SaleRefunded      SaleStatus = "REFUNDED"
	SalePartialRefund SaleStatus = "PARTIAL_REFUND"
	SaleCancelled     SaleStatus = "CANCELLED"
	SalePending       SaleStatus = "PENDING"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPending   PaymentStatus = "PENDING"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type TenderMethod string

const (
	TenderCash        TenderMethod = "CASH"
	TenderDebitCard   TenderMethod = "DEBIT_CARD"
	TenderCreditCard  TenderMethod = "CREDIT_CARD"
	TenderQR          TenderMethod = "QR"
	TenderWalletPoint TenderMethod = "MP_POINT"
	TenderTransfer    TenderMethod = "TRANSFER"
	TenderGiftCard    TenderMethod = "GIFT_CARD"
	TenderVoucher     TenderMethod = "VOUCHER"
	TenderStoreCredit TenderMethod = "STORE_CREDIT"
	TenderCreditNote  TenderMethod = "CREDIT"
	TenderOther       TenderMethod = "OTHER"
)
