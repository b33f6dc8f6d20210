package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
	"cianbox-pos/backend/internal/xid"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
	reader
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type reader struct {
	q queryer
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, reader: reader{q: db}}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&pgTx{reader: reader{q: sqlTx}}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapWriteError(err)
	}
	return nil
}

const sessionColumns = `
	id, tenant_id, branch_id, till_id, till_code, cashier_id, sequence_number, status,
	opening_cents, opened_at, opened_by, opening_notes,
	closed_at, closed_by, closing_notes, closing_cents, expected_cents, difference_cents,
	totals, deposits_cents, withdrawals_cents, previous_session_id, transfer_cents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.CashSession, error) {
	var (
		session         domain.CashSession
		status          string
		openingNotes    sql.NullString
		closedAt        sql.NullTime
		closedBy        sql.NullString
		closingNotes    sql.NullString
		closingCents    sql.NullInt64
		expectedCents   sql.NullInt64
		differenceCents sql.NullInt64
		totals          []byte
		previousID      sql.NullString
	)
	err := row.Scan(
		&session.ID, &session.TenantID, &session.BranchID, &session.TillID, &session.TillCode, &session.CashierID, &session.SequenceNumber, &status,
		&session.OpeningCents, &session.OpenedAt, &session.OpenedBy, &openingNotes,
		&closedAt, &closedBy, &closingNotes, &closingCents, &expectedCents, &differenceCents,
		&totals, &session.DepositsCents, &session.WithdrawalsCents, &previousID, &session.TransferCents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	session.Status = domain.SessionStatus(status)
	session.OpenedAt = session.OpenedAt.UTC()
	session.OpeningNotes = openingNotes.String
	session.ClosedBy = closedBy.String
	session.ClosingNotes = closingNotes.String
	session.PreviousSessionID = previousID.String
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		session.ClosedAt = &at
	}
	session.ClosingCents = int64Ptr(closingCents)
	session.ExpectedCents = int64Ptr(expectedCents)
	session.DifferenceCents = int64Ptr(differenceCents)
	if len(totals) > 0 {
		if err := json.Unmarshal(totals, &session.Totals); err != nil {
			return nil, fmt.Errorf("decode session totals: %w", err)
		}
	}
	return &session, nil
}

func (r reader) GetSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error) {
	return scanSession(r.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, sessionID))
}

func (r reader) FindActiveSessionByTill(ctx context.Context, tenantID string, tillID string) (*domain.CashSession, error) {
	return scanSession(r.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE tenant_id = $1 AND till_id = $2 AND status IN ('OPEN', 'SUSPENDED', 'COUNTING')
		LIMIT 1
	`, tenantID, tillID))
}

func (r reader) FindActiveSessionByCashier(ctx context.Context, tenantID string, cashierID string) (*domain.CashSession, error) {
	return scanSession(r.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE tenant_id = $1 AND cashier_id = $2 AND status IN ('OPEN', 'SUSPENDED', 'COUNTING')
		LIMIT 1
	`, tenantID, cashierID))
}

func (r reader) ListSessionSales(ctx context.Context, tenantID string, sessionID string) ([]domain.Sale, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, tenant_id, session_id, till_id, status, total_cents, payments, created_by, created_at
		FROM sales
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY created_at, id
	`, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var (
			sale     domain.Sale
			status   string
			payments []byte
		)
		if err := rows.Scan(&sale.ID, &sale.TenantID, &sale.SessionID, &sale.TillID, &status, &sale.TotalCents, &payments, &sale.CreatedBy, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.Status = domain.SaleStatus(status)
		sale.CreatedAt = sale.CreatedAt.UTC()
		if err := json.Unmarshal(payments, &sale.Payments); err != nil {
			return nil, fmt.Errorf("decode sale payments: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r reader) ListSessionMovements(ctx context.Context, tenantID string, sessionID string) ([]domain.CashMovement, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, session_id, tenant_id, type, amount_cents, reason, description, reference, destination,
			created_by, authorized_by, requires_authorization, created_at
		FROM cash_movements
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY created_at, id
	`, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.CashMovement, 0, 16)
	for rows.Next() {
		var (
			m                                   domain.CashMovement
			movementType, reason                string
			description, reference, destination sql.NullString
			authorizedBy                        sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.TenantID, &movementType, &m.AmountCents, &reason, &description, &reference, &destination,
			&m.CreatedBy, &authorizedBy, &m.RequiresAuthorization, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Type = domain.MovementType(movementType)
		m.Reason = domain.ReasonCode(reason)
		m.Description = description.String
		m.Reference = reference.String
		m.Destination = destination.String
		m.AuthorizedBy = authorizedBy.String
		m.CreatedAt = m.CreatedAt.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (r reader) ListSessionCounts(ctx context.Context, tenantID string, sessionID string) ([]domain.CashCount, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, session_id, tenant_id, type, bills, coins, bills_cents, coins_cents, cash_cents,
			vouchers_cents, checks_cents, other_cents, total_cents, expected_cents, difference_cents,
			difference_type, notes, counted_by, verified_by, created_at
		FROM cash_counts
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY created_at, id
	`, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.CashCount, 0, 4)
	for rows.Next() {
		var (
			c                     domain.CashCount
			countType             string
			bills, coins          []byte
			differenceType, notes sql.NullString
			verifiedBy            sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.SessionID, &c.TenantID, &countType, &bills, &coins, &c.BillsCents, &c.CoinsCents, &c.CashCents,
			&c.VouchersCents, &c.ChecksCents, &c.OtherCents, &c.TotalCents, &c.ExpectedCents, &c.DifferenceCents,
			&differenceType, &notes, &c.CountedBy, &verifiedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Type = domain.CountType(countType)
		if err := json.Unmarshal(bills, &c.Bills); err != nil {
			return nil, fmt.Errorf("decode count bills: %w", err)
		}
		if err := json.Unmarshal(coins, &c.Coins); err != nil {
			return nil, fmt.Errorf("decode count coins: %w", err)
		}
		c.DifferenceType = domain.DifferenceType(differenceType.String)
		c.Notes = notes.String
		c.VerifiedBy = verifiedBy.String
		c.CreatedAt = c.CreatedAt.UTC()
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r reader) GetTill(ctx context.Context, tenantID string, tillID string) (*domain.Till, error) {
	var till domain.Till
	err := r.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, branch_id, code, name, active
		FROM tills
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, tillID).Scan(&till.ID, &till.TenantID, &till.BranchID, &till.Code, &till.Name, &till.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &till, nil
}

func (r reader) GetUser(ctx context.Context, tenantID string, userID string) (*domain.UserAccount, error) {
	return scanUser(r.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, username, password, role, permissions, active, created_at
		FROM users
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, userID))
}

func scanUser(row rowScanner) (*domain.UserAccount, error) {
	var (
		user        domain.UserAccount
		permissions []byte
	)
	err := row.Scan(&user.ID, &user.TenantID, &user.Username, &user.Password, &user.Role, &permissions, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &user.Permissions); err != nil {
			return nil, fmt.Errorf("decode user permissions: %w", err)
		}
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.CashSession, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}

	conditions := []string{"tenant_id = $1"}
	args := []any{filter.TenantID}
	if filter.TillID != "" {
		args = append(args, filter.TillID)
		conditions = append(conditions, fmt.Sprintf("till_id = $%d", len(args)))
	}
	if filter.CashierID != "" {
		args = append(args, filter.CashierID)
		conditions = append(conditions, fmt.Sprintf("cashier_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY opened_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.CashSession, 0, limit)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, tenantID string, username string) (*domain.UserAccount, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, username, password, role, permissions, active, created_at
		FROM users
		WHERE tenant_id = $1 AND lower(username) = lower($2)
	`, tenantID, strings.TrimSpace(username)))
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.TenantID) == "" || strings.TrimSpace(user.Username) == "" {
		return store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	permissions, err := json.Marshal(nonNilStrings(user.Permissions))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, username, password, role, permissions, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, user.ID, user.TenantID, user.Username, user.Password, user.Role, permissions, user.Active, user.CreatedAt)
	return mapWriteError(err)
}

func (s *Store) UpdateUserPassword(ctx context.Context, tenantID string, userID string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $3 WHERE tenant_id = $1 AND id = $2
	`, tenantID, userID, password)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) CreateTill(ctx context.Context, till domain.Till) error {
	if strings.TrimSpace(till.ID) == "" || strings.TrimSpace(till.TenantID) == "" || strings.TrimSpace(till.Code) == "" {
		return store.ErrValidation
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tills (id, tenant_id, branch_id, code, name, active)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, till.ID, till.TenantID, till.BranchID, till.Code, till.Name, till.Active)
	return mapWriteError(err)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, tenant_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.TenantID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, tenantID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE tenant_id = $1
			AND created_at >= $2
			AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, tenantID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// pgTx runs inside a READ COMMITTED transaction. Session rows are serialized
// with FOR UPDATE; the partial unique indexes reject a second active session
// per till or cashier.
type pgTx struct {
	reader
}

func (t *pgTx) LockSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error) {
	return scanSession(t.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, sessionID))
}

func (t *pgTx) CountSessionsForTillDay(ctx context.Context, tenantID string, tillID string, day time.Time) (int, error) {
	start := nowDateUTC(day)
	var n int
	err := t.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM cash_sessions
		WHERE tenant_id = $1 AND till_id = $2 AND opened_at >= $3 AND opened_at < $4
	`, tenantID, tillID, start, start.AddDate(0, 0, 1)).Scan(&n)
	return n, err
}

func (t *pgTx) InsertSession(ctx context.Context, session domain.CashSession) error {
	totals, err := json.Marshal(session.Totals)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT INTO cash_sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`, session.ID, session.TenantID, session.BranchID, session.TillID, session.TillCode, session.CashierID, session.SequenceNumber, string(session.Status),
		session.OpeningCents, session.OpenedAt, session.OpenedBy, nullIfEmpty(session.OpeningNotes),
		nullTime(session.ClosedAt), nullIfEmpty(session.ClosedBy), nullIfEmpty(session.ClosingNotes),
		nullInt64(session.ClosingCents), nullInt64(session.ExpectedCents), nullInt64(session.DifferenceCents),
		totals, session.DepositsCents, session.WithdrawalsCents, nullIfEmpty(session.PreviousSessionID), session.TransferCents)
	return mapWriteError(err)
}

func (t *pgTx) UpdateSession(ctx context.Context, session domain.CashSession) error {
	totals, err := json.Marshal(session.Totals)
	if err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, `
		UPDATE cash_sessions
		SET status = $3, closed_at = $4, closed_by = $5, closing_notes = $6,
			closing_cents = $7, expected_cents = $8, difference_cents = $9,
			totals = $10, deposits_cents = $11, withdrawals_cents = $12, transfer_cents = $13
		WHERE tenant_id = $1 AND id = $2
	`, session.TenantID, session.ID, string(session.Status), nullTime(session.ClosedAt), nullIfEmpty(session.ClosedBy), nullIfEmpty(session.ClosingNotes),
		nullInt64(session.ClosingCents), nullInt64(session.ExpectedCents), nullInt64(session.DifferenceCents),
		totals, session.DepositsCents, session.WithdrawalsCents, session.TransferCents)
	if err != nil {
		return mapWriteError(err)
	}
	return requireAffected(res)
}

func (t *pgTx) InsertMovement(ctx context.Context, m domain.CashMovement) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO cash_movements (
			id, session_id, tenant_id, type, amount_cents, reason, description, reference, destination,
			created_by, authorized_by, requires_authorization, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, m.ID, m.SessionID, m.TenantID, string(m.Type), m.AmountCents, string(m.Reason), nullIfEmpty(m.Description), nullIfEmpty(m.Reference), nullIfEmpty(m.Destination),
		m.CreatedBy, nullIfEmpty(m.AuthorizedBy), m.RequiresAuthorization, m.CreatedAt)
	return mapWriteError(err)
}

func (t *pgTx) InsertCount(ctx context.Context, c domain.CashCount) error {
	bills, err := json.Marshal(c.Bills)
	if err != nil {
		return err
	}
	coins, err := json.Marshal(c.Coins)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT INTO cash_counts (
			id, session_id, tenant_id, type, bills, coins, bills_cents, coins_cents, cash_cents,
			vouchers_cents, checks_cents, other_cents, total_cents, expected_cents, difference_cents,
			difference_type, notes, counted_by, verified_by, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, c.ID, c.SessionID, c.TenantID, string(c.Type), bills, coins, c.BillsCents, c.CoinsCents, c.CashCents,
		c.VouchersCents, c.ChecksCents, c.OtherCents, c.TotalCents, c.ExpectedCents, c.DifferenceCents,
		nullIfEmpty(string(c.DifferenceType)), nullIfEmpty(c.Notes), c.CountedBy, nullIfEmpty(c.VerifiedBy), c.CreatedAt)
	return mapWriteError(err)
}

func (t *pgTx) InsertSale(ctx context.Context, sale domain.Sale) error {
	payments, err := json.Marshal(sale.Payments)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT INTO sales (id, tenant_id, session_id, till_id, status, total_cents, payments, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sale.ID, sale.TenantID, sale.SessionID, sale.TillID, string(sale.Status), sale.TotalCents, payments, sale.CreatedBy, sale.CreatedAt)
	return mapWriteError(err)
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", store.ErrConflict, constraintName(err))
	}
	return err
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func nowDateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func int64Ptr(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	v := val.Int64
	return &v
}

func nonNilStrings(val []string) []string {
	if val == nil {
		return []string{}
	}
	return val
}
