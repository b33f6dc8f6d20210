package store

import (
	"context"
	"errors"
	"time"

	"cianbox-pos/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid session state")
	ErrUnauthorized = errors.New("not authorized")
	ErrValidation   = errors.New("validation failed")
)

// Reader holds the queries that can run either inside a unit of work or
// directly against the repository.
type Reader interface {
	GetSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error)
	FindActiveSessionByTill(ctx context.Context, tenantID string, tillID string) (*domain.CashSession, error)
	FindActiveSessionByCashier(ctx context.Context, tenantID string, cashierID string) (*domain.CashSession, error)
	ListSessionSales(ctx context.Context, tenantID string, sessionID string) ([]domain.Sale, error)
	ListSessionMovements(ctx context.Context, tenantID string, sessionID string) ([]domain.CashMovement, error)
	ListSessionCounts(ctx context.Context, tenantID string, sessionID string) ([]domain.CashCount, error)
	GetTill(ctx context.Context, tenantID string, tillID string) (*domain.Till, error)
	GetUser(ctx context.Context, tenantID string, userID string) (*domain.UserAccount, error)
}

// Tx is a unit of work. Writes made through it become visible to other
// callers only when the function passed to WithinTx returns nil.
type Tx interface {
	Reader
	// LockSession reads a session and holds it against concurrent writers
	// until the unit of work ends.
	LockSession(ctx context.Context, tenantID string, sessionID string) (*domain.CashSession, error)
	CountSessionsForTillDay(ctx context.Context, tenantID string, tillID string, day time.Time) (int, error)
	InsertSession(ctx context.Context, session domain.CashSession) error
	UpdateSession(ctx context.Context, session domain.CashSession) error
	InsertMovement(ctx context.Context, movement domain.CashMovement) error
	InsertCount(ctx context.Context, count domain.CashCount) error
	InsertSale(ctx context.Context, sale domain.Sale) error
}

type Repository interface {
	Reader
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.CashSession, error)
	FindUserByUsername(ctx context.Context, tenantID string, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	UpdateUserPassword(ctx context.Context, tenantID string, userID string, password string) error
	CreateTill(ctx context.Context, till domain.Till) error
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, tenantID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
