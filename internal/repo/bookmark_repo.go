package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/linkhoard/linkhoard/internal/model"
	"github.com/linkhoard/linkhoard/internal/pkg/dbutil"
	appErr "github.com/linkhoard/linkhoard/internal/pkg/errors"
)

const bookmarkFields = `id, user_id, COALESCE(folder_id, ''), type, title,
	COALESCE(description, ''), COALESCE(url, ''), COALESCE(content, ''),
	source_type, COALESCE(file_url, ''), COALESCE(file_extension, ''),
	COALESCE(file_size, 0), COALESCE(platform, ''), ingest_status,
	COALESCE(ingest_error, ''), is_archived, ctime, mtime`

type BookmarkRepo struct {
	db *sql.DB
}

func NewBookmarkRepo(db *sql.DB) *BookmarkRepo {
	return &BookmarkRepo{db: db}
}

// nullable maps "" to NULL so optional columns stay distinguishable from
// empty strings written later.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *BookmarkRepo) Create(ctx context.Context, bm *model.Bookmark) error {
	now := time.Now().Unix()
	if bm.Ctime == 0 {
		bm.Ctime = now
	}
	if bm.Mtime == 0 {
		bm.Mtime = now
	}
	data := map[string]interface{}{
		"id":             bm.ID,
		"user_id":        bm.UserID,
		"folder_id":      nullable(bm.FolderID),
		"type":           string(bm.Type),
		"title":          bm.Title,
		"description":    nullable(bm.Description),
		"url":            nullable(bm.URL),
		"content":        nullable(bm.Content),
		"source_type":    string(bm.SourceType),
		"file_url":       nullable(bm.FileURL),
		"file_extension": nullable(bm.FileExtension),
		"file_size":      bm.FileSize,
		"platform":       nullable(bm.Platform),
		"ingest_status":  string(bm.IngestStatus),
		"ingest_error":   nullable(bm.IngestError),
		"is_archived":    bm.IsArchived,
		"ctime":          bm.Ctime,
		"mtime":          bm.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("bookmarks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *BookmarkRepo) update(ctx context.Context, where, update map[string]interface{}) error {
	update["mtime"] = time.Now().Unix()
	sqlStr, args, err := builder.BuildUpdate("bookmarks", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// MarkCompleted writes the final title/description/content together with the
// completed status in a single statement, and clears any prior failure.
func (r *BookmarkRepo) MarkCompleted(ctx context.Context, id, title, description, content string) error {
	return r.update(ctx,
		map[string]interface{}{"id": id},
		map[string]interface{}{
			"title":         title,
			"description":   nullable(description),
			"content":       content,
			"ingest_status": string(model.IngestStatusCompleted),
			"ingest_error":  nil,
		})
}

func (r *BookmarkRepo) MarkFailed(ctx context.Context, id, reason string) error {
	return r.update(ctx,
		map[string]interface{}{"id": id},
		map[string]interface{}{
			"ingest_status": string(model.IngestStatusFailed),
			"ingest_error":  reason,
		})
}

// MarkProcessing starts a new ingest attempt on an existing record.
func (r *BookmarkRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.update(ctx,
		map[string]interface{}{"id": id},
		map[string]interface{}{
			"ingest_status": string(model.IngestStatusProcessing),
			"ingest_error":  nil,
		})
}

// SetFileURL records the durable blob location. The generic url column is
// set too so file bookmarks open like any other.
func (r *BookmarkRepo) SetFileURL(ctx context.Context, id, fileURL string) error {
	return r.update(ctx,
		map[string]interface{}{"id": id},
		map[string]interface{}{
			"file_url": fileURL,
			"url":      fileURL,
		})
}

func scanBookmark(row interface{ Scan(...interface{}) error }) (*model.Bookmark, error) {
	var bm model.Bookmark
	err := row.Scan(&bm.ID, &bm.UserID, &bm.FolderID, &bm.Type, &bm.Title,
		&bm.Description, &bm.URL, &bm.Content, &bm.SourceType, &bm.FileURL,
		&bm.FileExtension, &bm.FileSize, &bm.Platform, &bm.IngestStatus,
		&bm.IngestError, &bm.IsArchived, &bm.Ctime, &bm.Mtime)
	if err != nil {
		return nil, err
	}
	return &bm, nil
}

func (r *BookmarkRepo) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	query := `SELECT ` + bookmarkFields + ` FROM bookmarks WHERE id = $1 AND user_id = $2`
	bm, err := scanBookmark(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bm, nil
}

type BookmarkFilter struct {
	Type     string
	Platform string
	FolderID string
	Limit    uint
}

func (r *BookmarkRepo) List(ctx context.Context, userID string, f BookmarkFilter) ([]*model.Bookmark, error) {
	where := map[string]interface{}{
		"user_id":     userID,
		"is_archived": false,
		"_orderby":    "ctime desc",
	}
	if f.Type != "" {
		where["type"] = f.Type
	}
	if f.Platform != "" {
		where["platform"] = f.Platform
	}
	if f.FolderID != "" {
		where["folder_id"] = f.FolderID
	}
	if f.Limit > 0 {
		where["_limit"] = []uint{0, f.Limit}
	}
	sqlStr, args, err := builder.BuildSelect("bookmarks", where, []string{bookmarkFields})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.Bookmark
	for rows.Next() {
		bm, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, bm)
	}
	return items, rows.Err()
}

func (r *BookmarkRepo) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListMissingEmbeddings finds completed bookmarks with content but no
// embedding rows, the degraded state left behind by a failed embedding pass.
func (r *BookmarkRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]*model.Bookmark, error) {
	const query = `
		SELECT b.id, b.user_id, b.content
		FROM bookmarks b
		LEFT JOIN bookmark_embeddings e ON b.id = e.bookmark_id
		WHERE e.bookmark_id IS NULL
			AND b.ingest_status = $1
			AND b.content IS NOT NULL AND b.content <> ''
		GROUP BY b.id, b.user_id, b.content
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, string(model.IngestStatusCompleted), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*model.Bookmark
	for rows.Next() {
		var bm model.Bookmark
		if err := rows.Scan(&bm.ID, &bm.UserID, &bm.Content); err != nil {
			return nil, err
		}
		items = append(items, &bm)
	}
	return items, rows.Err()
}
