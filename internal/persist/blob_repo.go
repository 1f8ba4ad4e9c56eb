package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// KindPackage 標記包描述列；資源列使用 asset.Kind 名稱。
const KindPackage = "package"

// Blob is one stored payload. Package descriptors use an empty Name;
// assets store name+ext.
type Blob struct {
	Package string
	Kind    string
	Name    string
	Data    []byte
	Digest  string
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type BlobRepo struct {
	q querier
}

func NewBlobRepo(db *DB) *BlobRepo {
	return &BlobRepo{q: db.Pool}
}

// Load returns the payload stored under (pkg, kind, name), or nil if none.
func (r *BlobRepo) Load(ctx context.Context, pkg, kind, name string) ([]byte, error) {
	var data []byte
	err := r.q.QueryRow(ctx,
		`SELECT data FROM ui_asset_blobs WHERE package = $1 AND kind = $2 AND name = $3`,
		pkg, kind, name,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s/%s/%s: %w", pkg, kind, name, err)
	}
	return data, nil
}

// Save inserts or replaces b.
func (r *BlobRepo) Save(ctx context.Context, b Blob) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO ui_asset_blobs (package, kind, name, data, digest)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (package, kind, name)
		 DO UPDATE SET data = EXCLUDED.data, digest = EXCLUDED.digest, updated_at = now()`,
		b.Package, b.Kind, b.Name, b.Data, b.Digest,
	)
	if err != nil {
		return fmt.Errorf("save blob %s/%s/%s: %w", b.Package, b.Kind, b.Name, err)
	}
	return nil
}

// DeletePackage 刪除 pkg 的所有列，回傳刪除筆數。
func (r *BlobRepo) DeletePackage(ctx context.Context, pkg string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM ui_asset_blobs WHERE package = $1`, pkg)
	if err != nil {
		return 0, fmt.Errorf("delete blobs of %s: %w", pkg, err)
	}
	return tag.RowsAffected(), nil
}
