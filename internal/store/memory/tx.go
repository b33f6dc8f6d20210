package memory

import (
	"context"
	"time"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/store"
)

// memTx stages writes over the Store's maps. The caller holds s.mu for the
// whole lifetime of a memTx; nothing reaches the Store until commit.
type memTx struct {
	s *Store

	sessions      map[string]domain.CashSession
	newSessionIDs []string
	movements     []domain.CashMovement
	counts        []domain.CashCount
	sales         []domain.Sale
}

func newTx(s *Store) *memTx {
	return &memTx{s: s, sessions: make(map[string]domain.CashSession)}
}

func (tx *memTx) commit() {
	s := tx.s
	for id, session := range tx.sessions {
		s.sessionsByID[id] = session
	}
	s.sessionOrder = append(s.sessionOrder, tx.newSessionIDs...)
	for _, m := range tx.movements {
		s.movements[m.SessionID] = append(s.movements[m.SessionID], m)
	}
	for _, c := range tx.counts {
		s.counts[c.SessionID] = append(s.counts[c.SessionID], c)
	}
	for _, sale := range tx.sales {
		s.sales[sale.SessionID] = append(s.sales[sale.SessionID], sale)
	}
}

func (tx *memTx) session(id string) (domain.CashSession, bool) {
	if session, ok := tx.sessions[id]; ok {
		return session, true
	}
	session, ok := tx.s.sessionsByID[id]
	return session, ok
}

// eachSession visits every session, staged ones taking precedence.
func (tx *memTx) eachSession(fn func(domain.CashSession) bool) {
	for _, id := range tx.s.sessionOrder {
		session, _ := tx.session(id)
		if !fn(session) {
			return
		}
	}
	for _, id := range tx.newSessionIDs {
		if !fn(tx.sessions[id]) {
			return
		}
	}
}

func (tx *memTx) GetSession(_ context.Context, tenantID string, sessionID string) (*domain.CashSession, error) {
	session, ok := tx.session(sessionID)
	if !ok || session.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	out := cloneSession(session)
	return &out, nil
}

func (tx *memTx) LockSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error) {
	return tx.GetSession(ctx, tenantID, sessionID)
}

func (tx *memTx) FindActiveSessionByTill(_ context.Context, tenantID string, tillID string) (*domain.CashSession, error) {
	return tx.findActive(func(session domain.CashSession) bool {
		return session.TenantID == tenantID && session.TillID == tillID
	})
}

func (tx *memTx) FindActiveSessionByCashier(_ context.Context, tenantID string, cashierID string) (*domain.CashSession, error) {
	return tx.findActive(func(session domain.CashSession) bool {
		return session.TenantID == tenantID && session.CashierID == cashierID
	})
}

func (tx *memTx) findActive(match func(domain.CashSession) bool) (*domain.CashSession, error) {
	var found *domain.CashSession
	tx.eachSession(func(session domain.CashSession) bool {
		if session.Status.Active() && match(session) {
			out := cloneSession(session)
			found = &out
			return false
		}
		return true
	})
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (tx *memTx) ListSessionSales(_ context.Context, tenantID string, sessionID string) ([]domain.Sale, error) {
	result := make([]domain.Sale, 0, len(tx.s.sales[sessionID]))
	for _, sale := range tx.s.sales[sessionID] {
		if sale.TenantID == tenantID {
			result = append(result, cloneSale(sale))
		}
	}
	for _, sale := range tx.sales {
		if sale.SessionID == sessionID && sale.TenantID == tenantID {
			result = append(result, cloneSale(sale))
		}
	}
	return result, nil
}

func (tx *memTx) ListSessionMovements(_ context.Context, tenantID string, sessionID string) ([]domain.CashMovement, error) {
	result := make([]domain.CashMovement, 0, len(tx.s.movements[sessionID]))
	for _, m := range tx.s.movements[sessionID] {
		if m.TenantID == tenantID {
			result = append(result, m)
		}
	}
	for _, m := range tx.movements {
		if m.SessionID == sessionID && m.TenantID == tenantID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (tx *memTx) ListSessionCounts(_ context.Context, tenantID string, sessionID string) ([]domain.CashCount, error) {
	result := make([]domain.CashCount, 0, len(tx.s.counts[sessionID]))
	for _, c := range tx.s.counts[sessionID] {
		if c.TenantID == tenantID {
			result = append(result, c)
		}
	}
	for _, c := range tx.counts {
		if c.SessionID == sessionID && c.TenantID == tenantID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tx *memTx) GetTill(_ context.Context, tenantID string, tillID string) (*domain.Till, error) {
	till, ok := tx.s.tills[tenantKey(tenantID, tillID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &till, nil
}

func (tx *memTx) GetUser(_ context.Context, tenantID string, userID string) (*domain.UserAccount, error) {
	user, ok := tx.s.users[tenantKey(tenantID, userID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (tx *memTx) CountSessionsForTillDay(_ context.Context, tenantID string, tillID string, day time.Time) (int, error) {
	n := 0
	tx.eachSession(func(session domain.CashSession) bool {
		if session.TenantID == tenantID && session.TillID == tillID && sameDayUTC(session.OpenedAt, day) {
			n++
		}
		return true
	})
	return n, nil
}

func (tx *memTx) InsertSession(_ context.Context, session domain.CashSession) error {
	if session.ID == "" || session.TenantID == "" {
		return store.ErrValidation
	}
	if _, exists := tx.session(session.ID); exists {
		return store.ErrConflict
	}
	if err := tx.checkUnique(session); err != nil {
		return err
	}
	tx.sessions[session.ID] = cloneSession(session)
	tx.newSessionIDs = append(tx.newSessionIDs, session.ID)
	return nil
}

func (tx *memTx) UpdateSession(_ context.Context, session domain.CashSession) error {
	existing, ok := tx.session(session.ID)
	if !ok || existing.TenantID != session.TenantID {
		return store.ErrNotFound
	}
	if err := tx.checkUnique(session); err != nil {
		return err
	}
	tx.sessions[session.ID] = cloneSession(session)
	return nil
}

// checkUnique enforces one active session per till, per cashier and a unique
// sequence number within a tenant.
func (tx *memTx) checkUnique(candidate domain.CashSession) error {
	var err error
	tx.eachSession(func(session domain.CashSession) bool {
		if session.ID == candidate.ID || session.TenantID != candidate.TenantID {
			return true
		}
		if candidate.SequenceNumber != "" && session.SequenceNumber == candidate.SequenceNumber {
			err = store.ErrConflict
			return false
		}
		if !candidate.Status.Active() || !session.Status.Active() {
			return true
		}
		if session.TillID == candidate.TillID || session.CashierID == candidate.CashierID {
			err = store.ErrConflict
			return false
		}
		return true
	})
	return err
}

func (tx *memTx) InsertMovement(_ context.Context, movement domain.CashMovement) error {
	if movement.ID == "" || movement.SessionID == "" {
		return store.ErrValidation
	}
	if _, ok := tx.session(movement.SessionID); !ok {
		return store.ErrNotFound
	}
	tx.movements = append(tx.movements, movement)
	return nil
}

func (tx *memTx) InsertCount(_ context.Context, count domain.CashCount) error {
	if count.ID == "" || count.SessionID == "" {
		return store.ErrValidation
	}
	if _, ok := tx.session(count.SessionID); !ok {
		return store.ErrNotFound
	}
	tx.counts = append(tx.counts, count)
	return nil
}

func (tx *memTx) InsertSale(_ context.Context, sale domain.Sale) error {
	if sale.ID == "" || sale.SessionID == "" {
		return store.ErrValidation
	}
	if _, ok := tx.session(sale.SessionID); !ok {
		return store.ErrNotFound
	}
	tx.sales = append(tx.sales, cloneSale(sale))
	return nil
}
