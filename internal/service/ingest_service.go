package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/linkhoard/linkhoard/internal/convert"
	"github.com/linkhoard/linkhoard/internal/embedq"
	"github.com/linkhoard/linkhoard/internal/filestore"
	"github.com/linkhoard/linkhoard/internal/ingest"
	"github.com/linkhoard/linkhoard/internal/model"
	appErr "github.com/linkhoard/linkhoard/internal/pkg/errors"
)

const (
	msgEmptyConversion     = "Conversion returned empty result"
	msgEmptyHTMLConversion = "HTML conversion returned empty result"
	msgUnknownError        = "Unknown error"
)

type BookmarkStore interface {
	Create(ctx context.Context, bm *model.Bookmark) error
	Get(ctx context.Context, userID, id string) (*model.Bookmark, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, title, description, content string) error
	MarkFailed(ctx context.Context, id, reason string) error
	SetFileURL(ctx context.Context, id, fileURL string) error
}

type EmbeddingScheduler interface {
	Submit(ctx context.Context, task embedq.Task) bool
}

// IngestService runs the capture pipeline: create the record in processing
// state, convert the source to markdown synchronously, then hand the content
// to the embedding queue. Conversion failures land on the record as a failed
// status instead of surfacing as request errors.
type IngestService struct {
	store     BookmarkStore
	files     filestore.Store
	converter convert.Converter
	queue     EmbeddingScheduler
	maxUpload int64
}

func NewIngestService(store BookmarkStore, files filestore.Store, converter convert.Converter,
	queue EmbeddingScheduler, maxUpload int64) *IngestService {
	return &IngestService{
		store:     store,
		files:     files,
		converter: converter,
		queue:     queue,
		maxUpload: maxUpload,
	}
}

type IngestURLInput struct {
	URL      string
	FolderID string
	Title    string
}

type IngestFileInput struct {
	Filename string
	Data     []byte
	FolderID string
	Title    string
}

type IngestExtensionInput struct {
	URL      string
	HTML     string
	FolderID string
	Title    string
}

type IngestResult struct {
	BookmarkID string             `json:"bookmark_id"`
	Title      string             `json:"title"`
	Markdown   *string            `json:"markdown"`
	Type       model.BookmarkType `json:"type"`
	Status     model.IngestStatus `json:"status"`
	Error      string             `json:"error,omitempty"`
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url: %s: %w", rawURL, appErr.ErrInvalid)
	}
	return nil
}

// failureMessage extracts a human-readable reason from a conversion error,
// never returning an empty string.
func failureMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return msgUnknownError
	}
	return msg
}

func (s *IngestService) IngestFromURL(ctx context.Context, userID string, input IngestURLInput) (*IngestResult, error) {
	rawURL := strings.TrimSpace(input.URL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	bm := &model.Bookmark{
		ID:           newID(),
		UserID:       userID,
		FolderID:     input.FolderID,
		Type:         ingest.TypeFromURL(rawURL),
		Title:        firstNonEmpty(input.Title, rawURL),
		URL:          rawURL,
		SourceType:   model.SourceTypeURL,
		Platform:     ingest.PlatformFromURL(rawURL),
		IngestStatus: model.IngestStatusProcessing,
	}
	if err := s.store.Create(ctx, bm); err != nil {
		return nil, err
	}
	return s.convertURL(ctx, bm, input.Title), nil
}

func (s *IngestService) convertURL(ctx context.Context, bm *model.Bookmark, userTitle string) *IngestResult {
	res, err := s.converter.ConvertURL(ctx, bm.URL)
	if err != nil {
		return s.fail(ctx, bm, failureMessage(err))
	}
	if res == nil || strings.TrimSpace(res.Markdown) == "" {
		return s.fail(ctx, bm, msgEmptyConversion)
	}
	return s.complete(ctx, bm, firstNonEmpty(userTitle, res.Title, bm.URL), res.Markdown)
}

func (s *IngestService) IngestFromFile(ctx context.Context, userID string, input IngestFileInput) (*IngestResult, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" || len(input.Data) == 0 {
		return nil, fmt.Errorf("file name and content are required: %w", appErr.ErrInvalid)
	}
	if s.maxUpload > 0 && int64(len(input.Data)) > s.maxUpload {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", s.maxUpload, appErr.ErrFileTooLarge)
	}
	ext := fileExtension(filename)
	bm := &model.Bookmark{
		ID:            newID(),
		UserID:        userID,
		FolderID:      input.FolderID,
		Type:          ingest.TypeFromExtension(ext),
		Title:         firstNonEmpty(input.Title, filename),
		SourceType:    model.SourceTypeFile,
		FileExtension: ext,
		FileSize:      int64(len(input.Data)),
		IngestStatus:  model.IngestStatusProcessing,
	}
	if err := s.store.Create(ctx, bm); err != nil {
		return nil, err
	}
	key := blobKey(bm.ID, ext)
	if err := s.files.Save(ctx, key, bytes.NewReader(input.Data), int64(len(input.Data))); err != nil {
		return s.fail(ctx, bm, failureMessage(err)), nil
	}
	fileURL := s.files.URL(key)
	if err := s.store.SetFileURL(ctx, bm.ID, fileURL); err != nil {
		return s.fail(ctx, bm, failureMessage(err)), nil
	}
	bm.FileURL = fileURL
	bm.URL = fileURL
	return s.convertBuffer(ctx, bm, input.Data, input.Title, filename), nil
}

func (s *IngestService) convertBuffer(ctx context.Context, bm *model.Bookmark, data []byte, userTitle, filename string) *IngestResult {
	res, err := s.converter.ConvertBuffer(ctx, data, bm.FileExtension)
	if err != nil {
		return s.fail(ctx, bm, failureMessage(err))
	}
	if res == nil || strings.TrimSpace(res.Markdown) == "" {
		return s.fail(ctx, bm, msgEmptyConversion)
	}
	return s.complete(ctx, bm, firstNonEmpty(userTitle, res.Title, filename), res.Markdown)
}

func (s *IngestService) IngestFromExtension(ctx context.Context, userID string, input IngestExtensionInput) (*IngestResult, error) {
	rawURL := strings.TrimSpace(input.URL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.HTML) == "" {
		return nil, fmt.Errorf("html content is required: %w", appErr.ErrInvalid)
	}
	bm := &model.Bookmark{
		ID:           newID(),
		UserID:       userID,
		FolderID:     input.FolderID,
		Type:         model.BookmarkTypeArticle,
		Title:        firstNonEmpty(input.Title, rawURL),
		URL:          rawURL,
		SourceType:   model.SourceTypeExtension,
		Platform:     ingest.PlatformFromURL(rawURL),
		IngestStatus: model.IngestStatusProcessing,
	}
	if err := s.store.Create(ctx, bm); err != nil {
		return nil, err
	}
	res, err := s.converter.ConvertHTML(ctx, input.HTML, rawURL)
	if err != nil {
		return s.fail(ctx, bm, failureMessage(err)), nil
	}
	if res == nil || strings.TrimSpace(res.Markdown) == "" {
		return s.fail(ctx, bm, msgEmptyHTMLConversion), nil
	}
	return s.complete(ctx, bm, firstNonEmpty(input.Title, res.Title, rawURL), res.Markdown), nil
}

// Reingest reruns conversion for an existing bookmark. File sources are read
// back from the blob store; extension captures refetch the page since the
// original HTML snapshot is not retained.
func (s *IngestService) Reingest(ctx context.Context, userID, id string) (*IngestResult, error) {
	bm, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkProcessing(ctx, bm.ID); err != nil {
		return nil, err
	}
	bm.IngestStatus = model.IngestStatusProcessing
	switch bm.SourceType {
	case model.SourceTypeFile:
		data, err := s.readBlob(ctx, bm)
		if err != nil {
			return s.fail(ctx, bm, failureMessage(err)), nil
		}
		return s.convertBuffer(ctx, bm, data, "", bm.Title), nil
	case model.SourceTypeURL, model.SourceTypeExtension:
		if bm.URL == "" {
			return s.fail(ctx, bm, "no source url to re-ingest"), nil
		}
		return s.convertURL(ctx, bm, ""), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s: %w", bm.SourceType, appErr.ErrInvalid)
	}
}

func (s *IngestService) readBlob(ctx context.Context, bm *model.Bookmark) ([]byte, error) {
	rc, err := s.files.Open(ctx, blobKey(bm.ID, bm.FileExtension))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *IngestService) complete(ctx context.Context, bm *model.Bookmark, title, markdown string) *IngestResult {
	description := ingest.ExtractDescription(markdown)
	if err := s.store.MarkCompleted(ctx, bm.ID, title, description, markdown); err != nil {
		logutil.GetLogger(ctx).Error("failed to persist ingest result",
			zap.String("bookmark_id", bm.ID), zap.Error(err))
		return s.fail(ctx, bm, failureMessage(err))
	}
	s.queue.Submit(ctx, embedq.Task{BookmarkID: bm.ID, UserID: bm.UserID, Content: markdown})
	return &IngestResult{
		BookmarkID: bm.ID,
		Title:      title,
		Markdown:   &markdown,
		Type:       bm.Type,
		Status:     model.IngestStatusCompleted,
	}
}

func (s *IngestService) fail(ctx context.Context, bm *model.Bookmark, reason string) *IngestResult {
	logutil.GetLogger(ctx).Warn("ingest failed",
		zap.String("bookmark_id", bm.ID), zap.String("reason", reason))
	if err := s.store.MarkFailed(ctx, bm.ID, reason); err != nil {
		logutil.GetLogger(ctx).Error("failed to mark bookmark failed",
			zap.String("bookmark_id", bm.ID), zap.Error(err))
	}
	return &IngestResult{
		BookmarkID: bm.ID,
		Title:      bm.Title,
		Markdown:   nil,
		Type:       bm.Type,
		Status:     model.IngestStatusFailed,
		Error:      reason,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx:])
}

func blobKey(bookmarkID, ext string) string {
	return "ingest/" + bookmarkID + "/source" + ext
}
