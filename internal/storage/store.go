package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error)

	// Adapter methods
	CreateAdapter(ctx context.Context, adapter *models.Adapter) error
	GetAdapter(ctx context.Context, id uuid.UUID) (*models.Adapter, error)
	GetAdapterByMAC(ctx context.Context, mac string) (*models.Adapter, error)
	UpdateAdapter(ctx context.Context, adapter *models.Adapter) error
	DeleteAdapter(ctx context.Context, id uuid.UUID) error
	ListAdapters(ctx context.Context, limit, offset int) ([]*models.Adapter, int64, error)

	// Event log methods
	CreateEventLog(ctx context.Context, event *models.EventLog) error
	ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error)

	// Close the store
	Close() error
}

// EventLogFilters represents filters for event logs
type EventLogFilters struct {
	AdapterID *uuid.UUID
	Type      *models.EventType
	Level     *models.EventLevel
	StartTime *time.Time
	EndTime   *time.Time
}
