package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/linkhoard/linkhoard/internal/model"
)

type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) DeleteByBookmark(ctx context.Context, bookmarkID string) error {
	const query = `DELETE FROM bookmark_embeddings WHERE bookmark_id = $1`
	_, err := r.db.ExecContext(ctx, query, bookmarkID)
	return err
}

// InsertBatch writes a full embedding generation as one statement inside a
// transaction, so readers never observe a partial set.
func (r *EmbeddingRepo) InsertBatch(ctx context.Context, items []*model.BookmarkEmbedding) error {
	if len(items) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO bookmark_embeddings (id, bookmark_id, user_id, content, embedding, ctime) VALUES `)
	args := make([]interface{}, 0, len(items)*6)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, item.ID, item.BookmarkID, item.UserID, item.Content,
			pgvector.NewVector(item.Embedding), item.Ctime)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *EmbeddingRepo) ListByBookmark(ctx context.Context, bookmarkID string) ([]*model.BookmarkEmbedding, error) {
	const query = `
		SELECT id, bookmark_id, user_id, content, embedding, ctime
		FROM bookmark_embeddings
		WHERE bookmark_id = $1
		ORDER BY ctime, id
	`
	rows, err := r.db.QueryContext(ctx, query, bookmarkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.BookmarkEmbedding
	for rows.Next() {
		var item model.BookmarkEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&item.ID, &item.BookmarkID, &item.UserID, &item.Content, &vec, &item.Ctime); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		items = append(items, &item)
	}
	return items, rows.Err()
}
