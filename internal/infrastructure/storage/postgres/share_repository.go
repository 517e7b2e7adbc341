package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"passvault/internal/crypto"
	"passvault/internal/domain/share"
)

type ShareRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewShareRepository(pool *pgxpool.Pool, log *slog.Logger) *ShareRepository {
	return &ShareRepository{
		pool: pool,
		log:  log.With("component", "share_repository"),
	}
}

const shareColumns = `
	id, item_id, sender_username, receiver_username, status, domain,
	payload_ciphertext, payload_nonce, payload_tag,
	key_ciphertext, key_nonce, key_tag, transfer_key,
	shared_at, expires_at, accepted_at`

func (r *ShareRepository) Create(ctx context.Context, sh *share.Share) (int, error) {
	const query = `
		INSERT INTO shared_items
			(item_id, sender_username, receiver_username, status, domain,
			 shared_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		sh.ItemID, sh.SenderUsername, sh.ReceiverUsername, string(sh.Status),
		sh.Domain, sh.SharedAt, sh.ExpiresAt,
	).Scan(&sh.ID)
	if err != nil {
		// The partial unique index on active pairs backstops the service's
		// pre-check under concurrency.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
			return 0, share.ErrActiveExists
		}
		r.log.Error("failed to create share",
			"item_id", sh.ItemID, "sender", sh.SenderUsername, "error", err)
		return 0, fmt.Errorf("create share: %w", err)
	}
	return sh.ID, nil
}

func (r *ShareRepository) Get(ctx context.Context, shareID int) (*share.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shared_items WHERE id = $1`

	sh, err := scanShare(r.pool.QueryRow(ctx, query, shareID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, share.ErrNotFound
		}
		r.log.Error("failed to get share", "share_id", shareID, "error", err)
		return nil, fmt.Errorf("get share: %w", err)
	}
	return sh, nil
}

func (r *ShareRepository) AttachData(ctx context.Context, shareID int, from share.Status, payload, wrappedKey crypto.SealedBox, transferKey []byte) error {
	const query = `
		UPDATE shared_items
		SET payload_ciphertext = $1, payload_nonce = $2, payload_tag = $3,
		    key_ciphertext = $4, key_nonce = $5, key_tag = $6,
		    transfer_key = $7, status = $8
		WHERE id = $9 AND status = $10`

	result, err := r.pool.Exec(ctx, query,
		payload.Ciphertext, payload.Nonce, payload.Tag,
		wrappedKey.Ciphertext, wrappedKey.Nonce, wrappedKey.Tag,
		transferKey, string(share.StatusPendingReceiver),
		shareID, string(from))
	if err != nil {
		r.log.Error("failed to attach share data", "share_id", shareID, "error", err)
		return fmt.Errorf("attach share data: %w", err)
	}
	if result.RowsAffected() == 0 {
		return share.ErrAlreadyProcessed
	}
	return nil
}

func (r *ShareRepository) UpdateStatus(ctx context.Context, shareID int, from []share.Status, to share.Status, acceptedAt *time.Time) error {
	assigns := `status = $1, accepted_at = COALESCE($2, accepted_at)`
	switch {
	case !to.Terminal():
		// Rolling back to a pending state also drops the acceptance mark.
		assigns = `status = $1, accepted_at = $2`
	case to != share.StatusAccepted:
		// Nobody can act on this row again; the escrowed key material is
		// dead weight and must not outlive the handshake.
		assigns += `,
		    transfer_key = NULL,
		    key_ciphertext = NULL, key_nonce = NULL, key_tag = NULL`
	}

	query := `
		UPDATE shared_items
		SET ` + assigns + `
		WHERE id = $3 AND status = ANY($4)`

	result, err := r.pool.Exec(ctx, query,
		string(to), acceptedAt, shareID, statusStrings(from))
	if err != nil {
		r.log.Error("failed to update share status",
			"share_id", shareID, "to", to, "error", err)
		return fmt.Errorf("update share status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return share.ErrAlreadyProcessed
	}
	return nil
}

func (r *ShareRepository) ClearEscrow(ctx context.Context, shareID int) error {
	const query = `
		UPDATE shared_items
		SET transfer_key = NULL,
		    key_ciphertext = NULL, key_nonce = NULL, key_tag = NULL
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, shareID); err != nil {
		r.log.Error("failed to clear share escrow", "share_id", shareID, "error", err)
		return fmt.Errorf("clear share escrow: %w", err)
	}
	return nil
}

func (r *ShareRepository) ListBySender(ctx context.Context, senderUsername string) ([]share.Share, error) {
	query := `SELECT ` + shareColumns + `
		FROM shared_items
		WHERE sender_username = $1
		ORDER BY shared_at DESC`

	rows, err := r.pool.Query(ctx, query, senderUsername)
	if err != nil {
		r.log.Error("failed to list sent shares", "sender", senderUsername, "error", err)
		return nil, fmt.Errorf("list sent shares: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

func (r *ShareRepository) ListByReceiver(ctx context.Context, receiverUsername string, statuses []share.Status) ([]share.Share, error) {
	query := `SELECT ` + shareColumns + `
		FROM shared_items
		WHERE receiver_username = $1`
	args := []any{receiverUsername}

	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, statusStrings(statuses))
	}
	query += ` ORDER BY shared_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list received shares",
			"receiver", receiverUsername, "error", err)
		return nil, fmt.Errorf("list received shares: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

func (r *ShareRepository) HasActive(ctx context.Context, itemID int, receiverUsername string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM shared_items
			WHERE item_id = $1 AND receiver_username = $2
			  AND status = ANY($3)
		)`

	active := statusStrings([]share.Status{
		share.StatusPendingSender, share.StatusPendingReceiver,
	})

	var exists bool
	err := r.pool.QueryRow(ctx, query, itemID, receiverUsername, active).Scan(&exists)
	if err != nil {
		r.log.Error("failed to check active share",
			"item_id", itemID, "receiver", receiverUsername, "error", err)
		return false, fmt.Errorf("check active share: %w", err)
	}
	return exists, nil
}

func statusStrings(statuses []share.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func scanShares(rows pgx.Rows) ([]share.Share, error) {
	var shares []share.Share
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, *sh)
	}
	return shares, rows.Err()
}

func scanShare(row pgx.Row) (*share.Share, error) {
	var sh share.Share
	var status string
	err := row.Scan(
		&sh.ID, &sh.ItemID, &sh.SenderUsername, &sh.ReceiverUsername,
		&status, &sh.Domain,
		&sh.Payload.Ciphertext, &sh.Payload.Nonce, &sh.Payload.Tag,
		&sh.WrappedKey.Ciphertext, &sh.WrappedKey.Nonce, &sh.WrappedKey.Tag,
		&sh.TransferKey,
		&sh.SharedAt, &sh.ExpiresAt, &sh.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	sh.Status = share.Status(status)
	return &sh, nil
}
