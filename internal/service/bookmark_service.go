package service

import (
	"context"

	"github.com/linkhoard/linkhoard/internal/model"
	"github.com/linkhoard/linkhoard/internal/repo"
)

type BookmarkReader interface {
	Get(ctx context.Context, userID, id string) (*model.Bookmark, error)
	List(ctx context.Context, userID string, f repo.BookmarkFilter) ([]*model.Bookmark, error)
	Delete(ctx context.Context, userID, id string) error
}

type BookmarkService struct {
	store BookmarkReader
}

func NewBookmarkService(store BookmarkReader) *BookmarkService {
	return &BookmarkService{store: store}
}

func (s *BookmarkService) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *BookmarkService) List(ctx context.Context, userID string, f repo.BookmarkFilter) ([]*model.Bookmark, error) {
	return s.store.List(ctx, userID, f)
}

// Delete removes the bookmark row; embedding rows go with it through the
// foreign key cascade.
func (s *BookmarkService) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

// IngestState is the polling view of a bookmark's pipeline progress.
type IngestState struct {
	BookmarkID string             `json:"bookmark_id"`
	Status     model.IngestStatus `json:"status"`
	Error      string             `json:"error,omitempty"`
	Title      string             `json:"title"`
	Type       model.BookmarkType `json:"type"`
}

func (s *BookmarkService) IngestState(ctx context.Context, userID, id string) (*IngestState, error) {
	bm, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &IngestState{
		BookmarkID: bm.ID,
		Status:     bm.IngestStatus,
		Error:      bm.IngestError,
		Title:      bm.Title,
		Type:       bm.Type,
	}, nil
}
