package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
	"passvault/internal/domain/vault"
)

type VaultRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewVaultRepository(pool *pgxpool.Pool, log *slog.Logger) *VaultRepository {
	return &VaultRepository{
		pool: pool,
		log:  log.With("component", "vault_repository"),
	}
}

func (r *VaultRepository) Create(ctx context.Context, item *vault.Item) (int, error) {
	const query = `
		INSERT INTO items (owner_id,
			payload_ciphertext, payload_nonce, payload_tag,
			key_ciphertext, key_nonce, key_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		item.OwnerID,
		item.Payload.Ciphertext, item.Payload.Nonce, item.Payload.Tag,
		item.WrappedSiteKey.Ciphertext, item.WrappedSiteKey.Nonce, item.WrappedSiteKey.Tag,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.log.Error("failed to create item", "owner_id", item.OwnerID, "error", err)
		return 0, fmt.Errorf("create item: %w", err)
	}
	return item.ID, nil
}

func (r *VaultRepository) List(ctx context.Context, ownerID int) ([]vault.Item, error) {
	const query = `
		SELECT id, owner_id,
		       payload_ciphertext, payload_nonce, payload_tag,
		       key_ciphertext, key_nonce, key_tag,
		       created_at, updated_at
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.log.Error("failed to list items", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []vault.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *VaultRepository) Get(ctx context.Context, itemID, ownerID int) (*vault.Item, error) {
	const query = `
		SELECT id, owner_id,
		       payload_ciphertext, payload_nonce, payload_tag,
		       key_ciphertext, key_nonce, key_tag,
		       created_at, updated_at
		FROM items
		WHERE id = $1 AND owner_id = $2`

	item, err := scanItem(r.pool.QueryRow(ctx, query, itemID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vault.ErrNotFound
		}
		r.log.Error("failed to get item", "item_id", itemID, "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (r *VaultRepository) UpdatePayload(ctx context.Context, itemID, ownerID int, payload crypto.SealedBox) error {
	const query = `
		UPDATE items
		SET payload_ciphertext = $1, payload_nonce = $2, payload_tag = $3,
		    updated_at = NOW()
		WHERE id = $4 AND owner_id = $5`

	result, err := r.pool.Exec(ctx, query,
		payload.Ciphertext, payload.Nonce, payload.Tag, itemID, ownerID)
	if err != nil {
		r.log.Error("failed to update item", "item_id", itemID, "owner_id", ownerID, "error", err)
		return fmt.Errorf("update item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

func (r *VaultRepository) Delete(ctx context.Context, itemID, ownerID int) error {
	const query = `DELETE FROM items WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, itemID, ownerID)
	if err != nil {
		r.log.Error("failed to delete item", "item_id", itemID, "owner_id", ownerID, "error", err)
		return fmt.Errorf("delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return vault.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*vault.Item, error) {
	var item vault.Item
	err := row.Scan(
		&item.ID, &item.OwnerID,
		&item.Payload.Ciphertext, &item.Payload.Nonce, &item.Payload.Tag,
		&item.WrappedSiteKey.Ciphertext, &item.WrappedSiteKey.Nonce, &item.WrappedSiteKey.Tag,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
