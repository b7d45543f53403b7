package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/instavibe/internal/domain"
)

// GetActiveServiceKeys отдает все активные сервисные ключи (bcrypt-хэши).
// Ключей единицы, поэтому проверка перебором хэшей на стороне сервиса.
func (r *SocialRepo) GetActiveServiceKeys(ctx context.Context) ([]domain.ServiceKey, error) {
	query := `
		SELECT id, name, key_hash, active, created_at
		FROM service_keys WHERE active = TRUE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch service keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.ServiceKey
	for rows.Next() {
		var k domain.ServiceKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.Active, &k.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
