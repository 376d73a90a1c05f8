package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/convert"
	"github.com/linkhoard/linkhoard/internal/embedq"
	"github.com/linkhoard/linkhoard/internal/model"
	appErr "github.com/linkhoard/linkhoard/internal/pkg/errors"
)

type fakeBookmarkStore struct {
	created   []*model.Bookmark
	completed map[string][3]string
	failed    map[string]string
	fileURLs  map[string]string
	existing  map[string]*model.Bookmark
}

func newFakeBookmarkStore() *fakeBookmarkStore {
	return &fakeBookmarkStore{
		completed: map[string][3]string{},
		failed:    map[string]string{},
		fileURLs:  map[string]string{},
		existing:  map[string]*model.Bookmark{},
	}
}

func (s *fakeBookmarkStore) Create(ctx context.Context, bm *model.Bookmark) error {
	s.created = append(s.created, bm)
	return nil
}

func (s *fakeBookmarkStore) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	bm, ok := s.existing[id]
	if !ok || bm.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	clone := *bm
	return &clone, nil
}

func (s *fakeBookmarkStore) MarkProcessing(ctx context.Context, id string) error {
	return nil
}

func (s *fakeBookmarkStore) MarkCompleted(ctx context.Context, id, title, description, content string) error {
	s.completed[id] = [3]string{title, description, content}
	return nil
}

func (s *fakeBookmarkStore) MarkFailed(ctx context.Context, id, reason string) error {
	s.failed[id] = reason
	return nil
}

func (s *fakeBookmarkStore) SetFileURL(ctx context.Context, id, fileURL string) error {
	s.fileURLs[id] = fileURL
	return nil
}

type fakeConverter struct {
	urlResult    *convert.Result
	urlErr       error
	bufferResult *convert.Result
	bufferErr    error
	htmlResult   *convert.Result
	htmlErr      error
	bufferExt    string
}

func (f *fakeConverter) ConvertURL(ctx context.Context, rawURL string) (*convert.Result, error) {
	return f.urlResult, f.urlErr
}

func (f *fakeConverter) ConvertBuffer(ctx context.Context, data []byte, extension string) (*convert.Result, error) {
	f.bufferExt = extension
	return f.bufferResult, f.bufferErr
}

func (f *fakeConverter) ConvertHTML(ctx context.Context, html string, sourceURL string) (*convert.Result, error) {
	return f.htmlResult, f.htmlErr
}

type fakeFileStore struct {
	saved   map[string][]byte
	saveErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: map[string][]byte{}}
}

func (f *fakeFileStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	data, _ := io.ReadAll(r)
	f.saved[key] = data
	return nil
}

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.saved[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFileStore) URL(key string) string {
	return "https://files.example.com/" + key
}

type fakeScheduler struct {
	tasks []embedq.Task
}

func (f *fakeScheduler) Submit(ctx context.Context, task embedq.Task) bool {
	f.tasks = append(f.tasks, task)
	return true
}

func newTestIngestService(store *fakeBookmarkStore, files *fakeFileStore, conv *fakeConverter, queue *fakeScheduler) *IngestService {
	return NewIngestService(store, files, conv, queue, 10<<20)
}

func TestIngestFromURL_Success(t *testing.T) {
	store := newFakeBookmarkStore()
	queue := &fakeScheduler{}
	conv := &fakeConverter{urlResult: &convert.Result{Title: "Converted Title", Markdown: "# Heading\n\nBody paragraph."}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, queue)

	res, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "https://example.com/article"})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusCompleted, res.Status)
	require.Equal(t, "Converted Title", res.Title)
	require.NotNil(t, res.Markdown)
	require.Equal(t, "# Heading\n\nBody paragraph.", *res.Markdown)

	require.Len(t, store.created, 1)
	bm := store.created[0]
	require.Equal(t, "u1", bm.UserID)
	require.Equal(t, model.SourceTypeURL, bm.SourceType)
	require.Equal(t, model.IngestStatusProcessing, bm.IngestStatus)

	final, ok := store.completed[bm.ID]
	require.True(t, ok)
	require.Equal(t, "Converted Title", final[0])
	require.Equal(t, "Body paragraph.", final[1])

	require.Len(t, queue.tasks, 1)
	require.Equal(t, bm.ID, queue.tasks[0].BookmarkID)
	require.Equal(t, "# Heading\n\nBody paragraph.", queue.tasks[0].Content)
}

func TestIngestFromURL_UserTitleWins(t *testing.T) {
	store := newFakeBookmarkStore()
	conv := &fakeConverter{urlResult: &convert.Result{Title: "Converted", Markdown: "Body."}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, &fakeScheduler{})

	res, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "https://example.com", Title: "My Title"})
	require.NoError(t, err)
	require.Equal(t, "My Title", res.Title)
}

func TestIngestFromURL_FallsBackToRawURLTitle(t *testing.T) {
	store := newFakeBookmarkStore()
	conv := &fakeConverter{urlResult: &convert.Result{Markdown: "Body only."}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, &fakeScheduler{})

	res, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "https://example.com/page"})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/page", res.Title)
}

func TestIngestFromURL_EmptyConversion(t *testing.T) {
	store := newFakeBookmarkStore()
	queue := &fakeScheduler{}
	conv := &fakeConverter{urlResult: nil}
	svc := newTestIngestService(store, newFakeFileStore(), conv, queue)

	res, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusFailed, res.Status)
	require.Nil(t, res.Markdown)
	require.Equal(t, "Conversion returned empty result", res.Error)

	bm := store.created[0]
	require.Equal(t, "Conversion returned empty result", store.failed[bm.ID])
	require.Empty(t, queue.tasks)
}

func TestIngestFromURL_ConverterError(t *testing.T) {
	store := newFakeBookmarkStore()
	conv := &fakeConverter{urlErr: errors.New("fetch url: unexpected status 503")}
	svc := newTestIngestService(store, newFakeFileStore(), conv, &fakeScheduler{})

	res, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusFailed, res.Status)
	require.Equal(t, "fetch url: unexpected status 503", res.Error)
}

func TestIngestFromURL_InvalidURLRejectedBeforeCreate(t *testing.T) {
	store := newFakeBookmarkStore()
	svc := newTestIngestService(store, newFakeFileStore(), &fakeConverter{}, &fakeScheduler{})

	_, err := svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "not-a-url"})
	require.Error(t, err)
	require.True(t, appErr.IsInvalid(err))
	require.Empty(t, store.created)

	_, err = svc.IngestFromURL(context.Background(), "u1", IngestURLInput{URL: "ftp://example.com/file"})
	require.Error(t, err)
	require.True(t, appErr.IsInvalid(err))
}

func TestIngestFromFile_Success(t *testing.T) {
	store := newFakeBookmarkStore()
	files := newFakeFileStore()
	queue := &fakeScheduler{}
	conv := &fakeConverter{bufferResult: &convert.Result{Markdown: "Extracted document text."}}
	svc := newTestIngestService(store, files, conv, queue)

	res, err := svc.IngestFromFile(context.Background(), "u1", IngestFileInput{
		Filename: "report.DOCX",
		Data:     []byte("binary-doc"),
	})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusCompleted, res.Status)
	require.Equal(t, "report.DOCX", res.Title)

	bm := store.created[0]
	require.Equal(t, model.SourceTypeFile, bm.SourceType)
	require.Equal(t, model.BookmarkTypeArticle, bm.Type)
	require.Equal(t, ".docx", bm.FileExtension)
	require.Equal(t, int64(len("binary-doc")), bm.FileSize)
	require.Equal(t, ".docx", conv.bufferExt)

	require.Contains(t, files.saved, "ingest/"+bm.ID+"/source.docx")
	require.Equal(t, "https://files.example.com/ingest/"+bm.ID+"/source.docx", store.fileURLs[bm.ID])
	require.Len(t, queue.tasks, 1)
}

func TestIngestFromFile_FileURLSetEvenWhenConversionFails(t *testing.T) {
	store := newFakeBookmarkStore()
	files := newFakeFileStore()
	conv := &fakeConverter{bufferResult: nil}
	svc := newTestIngestService(store, files, conv, &fakeScheduler{})

	res, err := svc.IngestFromFile(context.Background(), "u1", IngestFileInput{
		Filename: "scan.pdf",
		Data:     []byte("pdf-bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusFailed, res.Status)
	require.Equal(t, "Conversion returned empty result", res.Error)

	bm := store.created[0]
	require.NotEmpty(t, store.fileURLs[bm.ID])
}

func TestIngestFromFile_StorageFailureMarksFailed(t *testing.T) {
	store := newFakeBookmarkStore()
	files := newFakeFileStore()
	files.saveErr = errors.New("s3 upload failed: timeout")
	svc := newTestIngestService(store, files, &fakeConverter{}, &fakeScheduler{})

	res, err := svc.IngestFromFile(context.Background(), "u1", IngestFileInput{
		Filename: "doc.pdf",
		Data:     []byte("x"),
	})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusFailed, res.Status)
	bm := store.created[0]
	require.Equal(t, "s3 upload failed: timeout", store.failed[bm.ID])
	require.Empty(t, store.fileURLs[bm.ID])
}

func TestIngestFromFile_TooLarge(t *testing.T) {
	store := newFakeBookmarkStore()
	svc := NewIngestService(store, newFakeFileStore(), &fakeConverter{}, &fakeScheduler{}, 4)

	_, err := svc.IngestFromFile(context.Background(), "u1", IngestFileInput{
		Filename: "big.pdf",
		Data:     []byte("12345"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrFileTooLarge)
	require.Empty(t, store.created)
}

func TestIngestFromExtension_Success(t *testing.T) {
	store := newFakeBookmarkStore()
	queue := &fakeScheduler{}
	conv := &fakeConverter{htmlResult: &convert.Result{Title: "Page Title", Markdown: "Captured text."}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, queue)

	res, err := svc.IngestFromExtension(context.Background(), "u1", IngestExtensionInput{
		URL:  "https://mp.weixin.qq.com/s/abc",
		HTML: "<html><body>Captured text.</body></html>",
	})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusCompleted, res.Status)

	bm := store.created[0]
	require.Equal(t, model.SourceTypeExtension, bm.SourceType)
	require.Equal(t, model.BookmarkTypeArticle, bm.Type)
	require.Equal(t, "wechat", bm.Platform)
	require.Len(t, queue.tasks, 1)
}

func TestIngestFromExtension_EmptyConversion(t *testing.T) {
	store := newFakeBookmarkStore()
	conv := &fakeConverter{htmlResult: &convert.Result{Markdown: "   "}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, &fakeScheduler{})

	res, err := svc.IngestFromExtension(context.Background(), "u1", IngestExtensionInput{
		URL:  "https://example.com",
		HTML: "<html></html>",
	})
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusFailed, res.Status)
	require.Equal(t, "HTML conversion returned empty result", res.Error)
}

func TestReingest_URLSource(t *testing.T) {
	store := newFakeBookmarkStore()
	store.existing["b1"] = &model.Bookmark{
		ID:         "b1",
		UserID:     "u1",
		URL:        "https://example.com/page",
		SourceType: model.SourceTypeURL,
		Title:      "Old Title",
	}
	queue := &fakeScheduler{}
	conv := &fakeConverter{urlResult: &convert.Result{Title: "New Title", Markdown: "Fresh content."}}
	svc := newTestIngestService(store, newFakeFileStore(), conv, queue)

	res, err := svc.Reingest(context.Background(), "u1", "b1")
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusCompleted, res.Status)
	require.Equal(t, "New Title", res.Title)
	require.Len(t, queue.tasks, 1)
}

func TestReingest_FileSourceReadsBlob(t *testing.T) {
	store := newFakeBookmarkStore()
	store.existing["b2"] = &model.Bookmark{
		ID:            "b2",
		UserID:        "u1",
		SourceType:    model.SourceTypeFile,
		FileExtension: ".pdf",
		Title:         "doc.pdf",
	}
	files := newFakeFileStore()
	files.saved["ingest/b2/source.pdf"] = []byte("stored-bytes")
	conv := &fakeConverter{bufferResult: &convert.Result{Markdown: "Re-extracted."}}
	svc := newTestIngestService(store, files, conv, &fakeScheduler{})

	res, err := svc.Reingest(context.Background(), "u1", "b2")
	require.NoError(t, err)
	require.Equal(t, model.IngestStatusCompleted, res.Status)
}

func TestReingest_NotFound(t *testing.T) {
	store := newFakeBookmarkStore()
	svc := newTestIngestService(store, newFakeFileStore(), &fakeConverter{}, &fakeScheduler{})

	_, err := svc.Reingest(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestFailureMessage_BlankError(t *testing.T) {
	require.Equal(t, "Unknown error", failureMessage(errors.New("   ")))
	require.Equal(t, "boom", failureMessage(errors.New("boom")))
}
