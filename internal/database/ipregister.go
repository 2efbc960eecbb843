package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ipRegisterRepo implements IPRegisterRepository.
type ipRegisterRepo struct {
	db *DB
}

// NewIPRegisterRepository creates a new IPRegisterRepository.
func NewIPRegisterRepository(db *DB) IPRegisterRepository {
	return &ipRegisterRepo{db: db}
}

// Ensure records the address if not already known. Returns true when the
// address was newly inserted. The unique index on address makes this safe
// against concurrent registration events for the same device.
func (r *ipRegisterRepo) Ensure(ctx context.Context, address string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ip_registers (id, address, created_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT (address) DO NOTHING`,
		uuid.NewString(), address,
	)
	if err != nil {
		return false, fmt.Errorf("inserting ip register: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking ip register insert: %w", err)
	}
	return n > 0, nil
}
