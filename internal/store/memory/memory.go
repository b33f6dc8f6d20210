package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
)

const DemoTenantID = "demo-tenant"

type Store struct {
	mu           sync.RWMutex
	sessionsByID map[string]domain.CashSession
	sessionOrder []string
	movements    map[string][]domain.CashMovement
	counts       map[string][]domain.CashCount
	sales        map[string][]domain.Sale
	tills        map[string]domain.Till
	users        map[string]domain.UserAccount
	auditLogs    []domain.AuditLog
}

func New() *Store {
	return &Store{
		sessionsByID: make(map[string]domain.CashSession),
		movements:    make(map[string][]domain.CashMovement),
		counts:       make(map[string][]domain.CashCount),
		sales:        make(map[string][]domain.Sale),
		tills:        make(map[string]domain.Till),
		users:        make(map[string]domain.UserAccount),
		auditLogs:    make([]domain.AuditLog, 0, 128),
	}
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Passwords come from SEED_ADMIN_PASSWORD, SEED_SUPERVISOR_PASSWORD and
// SEED_CASHIER_PASSWORD; dev defaults are used with a warning when unset.
func seedUsers() []domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	supervisorPwd := envOr("SEED_SUPERVISOR_PASSWORD", "supervisor123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_SUPERVISOR_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := make([]domain.UserAccount, 0, 4)
	for _, u := range []struct {
		id          string
		username    string
		password    string
		role        string
		permissions []string
	}{
		{"user-admin", "admin", adminPwd, domain.RoleAdmin, nil},
		{"user-supervisor", "supervisor", supervisorPwd, domain.RoleSupervisor, []string{domain.PermissionCashMovements}},
		{"user-cashier", "cashier", cashierPwd, domain.RoleCashier, nil},
		{"user-cashier2", "cashier2", cashierPwd, domain.RoleCashier, nil},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.MinCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users = append(users, domain.UserAccount{
			ID:          u.id,
			TenantID:    DemoTenantID,
			Username:    u.username,
			Password:    string(hash),
			Role:        u.role,
			Permissions: u.permissions,
			Active:      true,
			CreatedAt:   now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	for _, till := range []domain.Till{
		{ID: "till-01", TenantID: DemoTenantID, BranchID: "branch-centro", Code: "T01", Name: "Caja 1", Active: true},
		{ID: "till-02", TenantID: DemoTenantID, BranchID: "branch-centro", Code: "T02", Name: "Caja 2", Active: true},
	} {
		s.tills[tenantKey(till.TenantID, till.ID)] = till
	}
	for _, user := range seedUsers() {
		s.users[tenantKey(user.TenantID, user.ID)] = user
	}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) GetSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).GetSession(ctx, tenantID, sessionID)
}

func (s *Store) FindActiveSessionByTill(ctx context.Context, tenantID string, tillID string) (*domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).FindActiveSessionByTill(ctx, tenantID, tillID)
}

func (s *Store) FindActiveSessionByCashier(ctx context.Context, tenantID string, cashierID string) (*domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).FindActiveSessionByCashier(ctx, tenantID, cashierID)
}

func (s *Store) ListSessionSales(ctx context.Context, tenantID string, sessionID string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).ListSessionSales(ctx, tenantID, sessionID)
}

func (s *Store) ListSessionMovements(ctx context.Context, tenantID string, sessionID string) ([]domain.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).ListSessionMovements(ctx, tenantID, sessionID)
}

func (s *Store) ListSessionCounts(ctx context.Context, tenantID string, sessionID string) ([]domain.CashCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).ListSessionCounts(ctx, tenantID, sessionID)
}

func (s *Store) GetTill(ctx context.Context, tenantID string, tillID string) (*domain.Till, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).GetTill(ctx, tenantID, tillID)
}

func (s *Store) GetUser(ctx context.Context, tenantID string, userID string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTx(s).GetUser(ctx, tenantID, userID)
}

func (s *Store) ListSessions(_ context.Context, filter domain.SessionFilter) ([]domain.CashSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashSession, 0, 16)
	for i := len(s.sessionOrder) - 1; i >= 0; i-- {
		session := s.sessionsByID[s.sessionOrder[i]]
		if session.TenantID != filter.TenantID {
			continue
		}
		if filter.TillID != "" && session.TillID != filter.TillID {
			continue
		}
		if filter.CashierID != "" && session.CashierID != filter.CashierID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		result = append(result, cloneSession(session))
	}
	slices.SortStableFunc(result, func(a, b domain.CashSession) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) FindUserByUsername(_ context.Context, tenantID string, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username = strings.ToLower(strings.TrimSpace(username))
	for _, user := range s.users {
		if user.TenantID == tenantID && strings.ToLower(user.Username) == username {
			copyUser := cloneUser(user)
			return &copyUser, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.TenantID) == "" || strings.TrimSpace(user.Username) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[tenantKey(user.TenantID, user.ID)]; exists {
		return store.ErrConflict
	}
	for _, existing := range s.users {
		if existing.TenantID == user.TenantID && strings.EqualFold(existing.Username, user.Username) {
			return store.ErrConflict
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[tenantKey(user.TenantID, user.ID)] = cloneUser(user)
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, tenantID string, userID string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantKey(tenantID, userID)
	user, exists := s.users[key]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[key] = user
	return nil
}

func (s *Store) CreateTill(_ context.Context, till domain.Till) error {
	if strings.TrimSpace(till.ID) == "" || strings.TrimSpace(till.TenantID) == "" || strings.TrimSpace(till.Code) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantKey(till.TenantID, till.ID)
	if _, exists := s.tills[key]; exists {
		return store.ErrConflict
	}
	s.tills[key] = till
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, tenantID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, len(s.auditLogs))
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if entry.TenantID != tenantID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func tenantKey(tenantID string, id string) string {
	return tenantID + "|" + id
}

func sameDayUTC(a time.Time, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func cloneUser(src domain.UserAccount) domain.UserAccount {
	dst := src
	dst.Permissions = append([]string(nil), src.Permissions...)
	return dst
}

func cloneSale(src domain.Sale) domain.Sale {
	dst := src
	dst.Payments = append([]domain.Payment(nil), src.Payments...)
	return dst
}

func cloneSession(src domain.CashSession) domain.CashSession {
	dst := src
	if src.ClosedAt != nil {
		at := *src.ClosedAt
		dst.ClosedAt = &at
	}
	dst.ClosingCents = cloneInt64(src.ClosingCents)
	dst.ExpectedCents = cloneInt64(src.ExpectedCents)
	dst.DifferenceCents = cloneInt64(src.DifferenceCents)
	return dst
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
