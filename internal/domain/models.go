package domain

import "time"

type LoginRequest struct {
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor is the authenticated caller supplied by the HTTP layer.
type Actor struct {
	UserID   string
	Username string
	Role     string
	TenantID string
}

type Till struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// UserAccount is an internal persistence model for tenant users.
type UserAccount struct {
	ID          string
	TenantID    string
	Username    string
	Password    string
	Role        string
	Permissions []string
	Active      bool
	CreatedAt   time.Time
}

func (u UserAccount) HasPermission(permission string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// PaymentTotals is the per-tender snapshot of a session's sales.
type PaymentTotals struct {
	CashCents     int64 `json:"cash_cents"`
	DebitCents    int64 `json:"debit_cents"`
	CreditCents   int64 `json:"credit_cents"`
	QRCents       int64 `json:"qr_cents"`
	WalletCents   int64 `json:"wallet_cents"`
	TransferCents int64 `json:"transfer_cents"`
	OtherCents    int64 `json:"other_cents"`
	SalesCount    int   `json:"sales_count"`
	SalesCents    int64 `json:"sales_cents"`
	RefundsCount  int   `json:"refunds_count"`
	RefundsCents  int64 `json:"refunds_cents"`
	CancelsCount  int   `json:"cancels_count"`
}

type CashSession struct {
	ID                string        `json:"id"`
	TenantID          string        `json:"tenant_id"`
	BranchID          string        `json:"branch_id"`
	TillID            string        `json:"till_id"`
	TillCode          string        `json:"till_code"`
	CashierID         string        `json:"cashier_id"`
	SequenceNumber    string        `json:"sequence_number"`
	Status            SessionStatus `json:"status"`
	OpeningCents      int64         `json:"opening_cents"`
	OpenedAt          time.Time     `json:"opened_at"`
	OpenedBy          string        `json:"opened_by"`
	OpeningNotes      string        `json:"opening_notes,omitempty"`
	ClosedAt          *time.Time    `json:"closed_at,omitempty"`
	ClosedBy          string        `json:"closed_by,omitempty"`
	ClosingNotes      string        `json:"closing_notes,omitempty"`
	ClosingCents      *int64        `json:"closing_cents,omitempty"`
	ExpectedCents     *int64        `json:"expected_cents,omitempty"`
	DifferenceCents   *int64        `json:"difference_cents,omitempty"`
	Totals            PaymentTotals `json:"totals"`
	DepositsCents     int64         `json:"deposits_cents"`
	WithdrawalsCents  int64         `json:"withdrawals_cents"`
	PreviousSessionID string        `json:"previous_session_id,omitempty"`
	TransferCents     int64         `json:"transfer_cents,omitempty"`
}

type CashMovement struct {
	ID                    string       `json:"id"`
	SessionID             string       `json:"session_id"`
	TenantID              string       `json:"tenant_id"`
	Type                  MovementType `json:"type"`
	AmountCents           int64        `json:"amount_cents"`
	Reason                ReasonCode   `json:"reason"`
	Description           string       `json:"description,omitempty"`
	Reference             string       `json:"reference,omitempty"`
	Destination           string       `json:"destination,omitempty"`
	CreatedBy             string       `json:"created_by"`
	AuthorizedBy          string       `json:"authorized_by,omitempty"`
	RequiresAuthorization bool         `json:"requires_authorization"`
	CreatedAt             time.Time    `json:"created_at"`
}

// SignedCents returns the movement's effect on the drawer.
func (m CashMovement) SignedCents() int64 {
	if m.Type.Inbound() {
		return m.AmountCents
	}
	return -m.AmountCents
}

type CashCount struct {
	ID              string         `json:"id"`
	SessionID       string         `json:"session_id"`
	TenantID        string         `json:"tenant_id"`
	Type            CountType      `json:"type"`
	Bills           BillCounts     `json:"bills"`
	Coins           CoinCounts     `json:"coins"`
	BillsCents      int64          `json:"bills_cents"`
	CoinsCents      int64          `json:"coins_cents"`
	CashCents       int64          `json:"cash_cents"`
	VouchersCents   int64          `json:"vouchers_cents"`
	ChecksCents     int64          `json:"checks_cents"`
	OtherCents      int64          `json:"other_cents"`
	TotalCents      int64          `json:"total_cents"`
	ExpectedCents   int64          `json:"expected_cents"`
	DifferenceCents int64          `json:"difference_cents"`
	DifferenceType  DifferenceType `json:"difference_type,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CountedBy       string         `json:"counted_by"`
	VerifiedBy      string         `json:"verified_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type Payment struct {
	ID          string        `json:"id"`
	Method      TenderMethod  `json:"method"`
	Status      PaymentStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	ChangeCents int64         `json:"change_cents,omitempty"`
	Reference   string        `json:"reference,omitempty"`
}

// Sale is the read model of a ticket captured at a till.
type Sale struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	SessionID  string     `json:"session_id"`
	TillID     string     `json:"till_id"`
	Status     SaleStatus `json:"status"`
	TotalCents int64      `json:"total_cents"`
	Payments   []Payment  `json:"payments"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type SessionFilter struct {
	TenantID  string
	TillID    string
	CashierID string
	Status    SessionStatus
	Limit     int
}

type DenominationCount struct {
	Bills         BillCounts `json:"bills"`
	Coins         CoinCounts `json:"coins"`
	VouchersCents int64      `json:"vouchers_cents"`
	ChecksCents   int64      `json:"checks_cents"`
	OtherCents    int64      `json:"other_cents"`
}

type OpenSessionRequest struct {
	TillID       string `json:"till_id"`
	OpeningCents int64  `json:"opening_cents"`
	Notes        string `json:"notes"`
}

type CloseSessionRequest struct {
	Count      *DenominationCount `json:"count,omitempty"`
	Notes      string             `json:"notes"`
	VerifiedBy string             `json:"verified_by,omitempty"`
}

type TransferSessionRequest struct {
	ToCashierID   string             `json:"to_cashier_id"`
	TransferCents int64              `json:"transfer_cents"`
	Count         *DenominationCount `json:"count,omitempty"`
	Notes         string             `json:"notes"`
}

type TransferSessionResponse struct {
	ClosedSession CashSession `json:"closed_session"`
	NewSession    CashSession `json:"new_session"`
}

type DepositRequest struct {
	AmountCents int64      `json:"amount_cents"`
	Reason      ReasonCode `json:"reason"`
	Description string     `json:"description"`
	Reference   string     `json:"reference"`
}

type WithdrawRequest struct {
	AmountCents  int64      `json:"amount_cents"`
	Reason       ReasonCode `json:"reason"`
	AuthorizedBy string     `json:"authorized_by"`
	Description  string     `json:"description"`
	Reference    string     `json:"reference"`
	Destination  string     `json:"destination"`
}

type AdjustmentRequest struct {
	Direction    string     `json:"direction"`
	AmountCents  int64      `json:"amount_cents"`
	Reason       ReasonCode `json:"reason"`
	AuthorizedBy string     `json:"authorized_by"`
	Description  string     `json:"description"`
}

type CountRequest struct {
	Type CountType `json:"type"`
	DenominationCount
	Notes      string `json:"notes"`
	VerifiedBy string `json:"verified_by,omitempty"`
}

type RecordSaleRequest struct {
	TillID     string     `json:"till_id"`
	Status     SaleStatus `json:"status"`
	TotalCents int64      `json:"total_cents"`
	Payments   []Payment  `json:"payments"`
}

// SessionSummary is the figure set shown when a drawer is closed.
type SessionSummary struct {
	SessionID        string         `json:"session_id"`
	SequenceNumber   string         `json:"sequence_number"`
	Status           SessionStatus  `json:"status"`
	OpeningCents     int64          `json:"opening_cents"`
	ClosingCents     int64          `json:"closing_cents"`
	ExpectedCents    int64          `json:"expected_cents"`
	DifferenceCents  int64          `json:"difference_cents"`
	DifferenceType   DifferenceType `json:"difference_type,omitempty"`
	Totals           PaymentTotals  `json:"totals"`
	DepositsCents    int64          `json:"deposits_cents"`
	WithdrawalsCents int64          `json:"withdrawals_cents"`
	MovementsCount   int            `json:"movements_count"`
	CountsCount      int            `json:"counts_count"`
}

type CloseSessionResponse struct {
	Session CashSession    `json:"session"`
	Summary SessionSummary `json:"summary"`
	Count   *CashCount     `json:"count,omitempty"`
}

type CountResponse struct {
	Count   CashCount      `json:"count"`
	Session CashSession    `json:"session"`
	Summary SessionSummary `json:"summary"`
}

type ExpectedCashResponse struct {
	SessionID     string `json:"session_id"`
	ExpectedCents int64  `json:"expected_cents"`
	At            string `json:"at"`
}

const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleCashier    = "cashier"
)

const PermissionCashMovements = "cash.movements"
