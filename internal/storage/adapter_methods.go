package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/models"
)

// ========== Adapter Methods ==========

// CreateAdapter creates a new adapter
func (s *PostgresStore) CreateAdapter(ctx context.Context, adapter *models.Adapter) error {
	if adapter.ID == uuid.Nil {
		adapter.ID = uuid.New()
	}

	now := time.Now()
	adapter.CreatedAt = now
	adapter.UpdatedAt = now

	query := `
        INSERT INTO adapters (
            id, created_at, updated_at, name, mac_address, description, power_save
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.getDB().ExecContext(ctx, query,
		adapter.ID, adapter.CreatedAt, adapter.UpdatedAt,
		adapter.Name, adapter.MACAddress, adapter.Description, adapter.PowerSave,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetAdapter gets an adapter by ID
func (s *PostgresStore) GetAdapter(ctx context.Context, id uuid.UUID) (*models.Adapter, error) {
	query := `
        SELECT id, created_at, updated_at, name, mac_address, description,
               power_save, last_seen_at
        FROM adapters
        WHERE id = $1`

	adapter := &models.Adapter{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&adapter.ID, &adapter.CreatedAt, &adapter.UpdatedAt,
		&adapter.Name, &adapter.MACAddress, &adapter.Description,
		&adapter.PowerSave, &adapter.LastSeenAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return adapter, nil
}

// GetAdapterByMAC gets an adapter by MAC address
func (s *PostgresStore) GetAdapterByMAC(ctx context.Context, mac string) (*models.Adapter, error) {
	query := `
        SELECT id, created_at, updated_at, name, mac_address, description,
               power_save, last_seen_at
        FROM adapters
        WHERE mac_address = $1`

	adapter := &models.Adapter{}
	err := s.getDB().QueryRowContext(ctx, query, mac).Scan(
		&adapter.ID, &adapter.CreatedAt, &adapter.UpdatedAt,
		&adapter.Name, &adapter.MACAddress, &adapter.Description,
		&adapter.PowerSave, &adapter.LastSeenAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return adapter, nil
}

// UpdateAdapter updates an adapter
func (s *PostgresStore) UpdateAdapter(ctx context.Context, adapter *models.Adapter) error {
	adapter.UpdatedAt = time.Now()

	query := `
        UPDATE adapters
        SET updated_at = $2, name = $3, mac_address = $4, description = $5,
            power_save = $6, last_seen_at = $7
        WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		adapter.ID, adapter.UpdatedAt, adapter.Name, adapter.MACAddress,
		adapter.Description, adapter.PowerSave, adapter.LastSeenAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAdapter deletes an adapter
func (s *PostgresStore) DeleteAdapter(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, `DELETE FROM adapters WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListAdapters lists adapters
func (s *PostgresStore) ListAdapters(ctx context.Context, limit, offset int) ([]*models.Adapter, int64, error) {
	var count int64
	err := s.getDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM adapters`).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, created_at, updated_at, name, mac_address, description,
               power_save, last_seen_at
        FROM adapters
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := s.getDB().QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var adapters []*models.Adapter
	for rows.Next() {
		adapter := &models.Adapter{}
		err := rows.Scan(
			&adapter.ID, &adapter.CreatedAt, &adapter.UpdatedAt,
			&adapter.Name, &adapter.MACAddress, &adapter.Description,
			&adapter.PowerSave, &adapter.LastSeenAt,
		)
		if err != nil {
			return nil, 0, err
		}
		adapters = append(adapters, adapter)
	}

	return adapters, count, nil
}
