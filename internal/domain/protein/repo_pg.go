package protein

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/protkit/protkit/internal/platform/db"
	"github.com/protkit/protkit/pkg/proteome"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type proteinRepoPG struct{ pool *pgxpool.Pool }

func NewProteinRepoPG(pool *pgxpool.Pool) ProteinRepository {
	return &proteinRepoPG{pool: pool}
}

func (r *proteinRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const proteinCols = `id, identifier, sequence, description, source, length, created_at, updated_at`

func (r *proteinRepoPG) scanRow(row pgx.Row) (*StoredProtein, error) {
	var p StoredProtein
	err := row.Scan(&p.ID, &p.Identifier, &p.Sequence, &p.Description, &p.Source, &p.Length,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *proteinRepoPG) Upsert(ctx context.Context, p *StoredProtein) error {
	p.Length = len(p.Sequence)
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO protein (id, identifier, sequence, description, source, length)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (identifier) DO UPDATE SET
			sequence = EXCLUDED.sequence,
			description = EXCLUDED.description,
			source = EXCLUDED.source,
			length = EXCLUDED.length,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		uuid.New(), p.Identifier, p.Sequence, p.Description, p.Source, p.Length,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *proteinRepoPG) GetByIdentifier(ctx context.Context, identifier string) (*StoredProtein, error) {
	p, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+proteinCols+` FROM protein WHERE identifier = $1`, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, proteome.NotFound(identifier, "", "protein not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *proteinRepoPG) List(ctx context.Context, limit, offset int) ([]*StoredProtein, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM protein`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+proteinCols+` FROM protein ORDER BY ordinal LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StoredProtein
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *proteinRepoPG) Delete(ctx context.Context, identifier string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM protein WHERE identifier = $1`, identifier)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return proteome.NotFound(identifier, "", "protein not found")
	}
	return nil
}
