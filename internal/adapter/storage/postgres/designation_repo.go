package postgres

import (
	"context"
	"fmt"
	"time"

	"stable-channels/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// DesignationRepo implements ports.DesignationRepository.
type DesignationRepo struct {
	pool Pool
}

// NewDesignationRepo creates a designation store on pool.
func NewDesignationRepo(pool Pool) *DesignationRepo {
	return &DesignationRepo{pool: pool}
}

// Upsert inserts or replaces a designation. created_at is kept on conflict.
func (r *DesignationRepo) Upsert(ctx context.Context, d *domain.Designation) error {
	query := `INSERT INTO pegged_channels (channel_id, counterparty, role, expected_fiat, expected_native, risk_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (channel_id) DO UPDATE
		SET counterparty=EXCLUDED.counterparty, role=EXCLUDED.role, expected_fiat=EXCLUDED.expected_fiat,
			expected_native=EXCLUDED.expected_native, risk_level=EXCLUDED.risk_level, updated_at=EXCLUDED.updated_at`

	created, updated := d.CreatedAt, d.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}

	_, err := r.pool.Exec(ctx, query,
		d.ChannelID.String(), nodeText(d.Counterparty), string(d.Role),
		d.ExpectedFiat.Decimal().String(), int64(d.ExpectedNative), d.RiskLevel,
		created, updated,
	)
	if err != nil {
		return fmt.Errorf("upsert designation: %w", err)
	}
	return nil
}

// List returns every designation ordered by channel id.
func (r *DesignationRepo) List(ctx context.Context) ([]domain.Designation, error) {
	query := `SELECT channel_id, counterparty, role, expected_fiat::text, expected_native, risk_level, created_at, updated_at
		FROM pegged_channels ORDER BY channel_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list designations: %w", err)
	}
	defer rows.Close()

	var out []domain.Designation
	for rows.Next() {
		d, err := scanDesignation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list designations: %w", err)
	}
	return out, nil
}

// Delete removes a designation. Deleting an unknown channel is not an error.
func (r *DesignationRepo) Delete(ctx context.Context, channelID domain.ChannelID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM pegged_channels WHERE channel_id = $1`, channelID.String())
	if err != nil {
		return fmt.Errorf("delete designation: %w", err)
	}
	return nil
}

func scanDesignation(rows pgx.Rows) (domain.Designation, error) {
	var d domain.Designation
	var channelID, peer, role, expectedFiat string
	var expectedNative int64
	if err := rows.Scan(&channelID, &peer, &role, &expectedFiat, &expectedNative, &d.RiskLevel, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return d, fmt.Errorf("scan designation: %w", err)
	}

	id, err := domain.ParseChannelID(channelID)
	if err != nil {
		return d, fmt.Errorf("designation %q: %w", channelID, err)
	}
	d.ChannelID = id

	if peer != "" {
		if d.Counterparty, err = domain.ParseNodeID(peer); err != nil {
			return d, fmt.Errorf("designation %s counterparty: %w", channelID, err)
		}
	}
	if d.ExpectedFiat, err = domain.ParseFiatAmount(expectedFiat); err != nil {
		return d, fmt.Errorf("designation %s expected_fiat: %w", channelID, err)
	}
	d.Role = domain.Role(role)
	d.ExpectedNative = domain.NativeAmount(expectedNative)
	return d, nil
}

// nodeText stores an unknown counterparty as the empty string.
func nodeText(n domain.NodeID) string {
	if n.IsZero() {
		return ""
	}
	return n.String()
}
