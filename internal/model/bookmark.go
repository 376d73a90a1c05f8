package model

type SourceType string

const (
	SourceTypeURL       SourceType = "url"
	SourceTypeFile      SourceType = "file"
	SourceTypeExtension SourceType = "extension"
)

type BookmarkType string

const (
	BookmarkTypeLink    BookmarkType = "link"
	BookmarkTypeArticle BookmarkType = "article"
	BookmarkTypeVideo   BookmarkType = "video"
	BookmarkTypeImage   BookmarkType = "image"
	BookmarkTypeAudio   BookmarkType = "audio"
	BookmarkTypeNote    BookmarkType = "note"
	BookmarkTypeOther   BookmarkType = "other"
)

type IngestStatus string

const (
	IngestStatusPending    IngestStatus = "pending"
	IngestStatusProcessing IngestStatus = "processing"
	IngestStatusCompleted  IngestStatus = "completed"
	IngestStatusFailed     IngestStatus = "failed"
)

type Bookmark struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	FolderID      string       `json:"folder_id,omitempty"`
	Type          BookmarkType `json:"type"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	URL           string       `json:"url,omitempty"`
	Content       string       `json:"content,omitempty"`
	SourceType    SourceType   `json:"source_type"`
	FileURL       string       `json:"file_url,omitempty"`
	FileExtension string       `json:"file_extension,omitempty"`
	FileSize      int64        `json:"file_size,omitempty"`
	Platform      string       `json:"platform,omitempty"`
	IngestStatus  IngestStatus `json:"ingest_status"`
	IngestError   string       `json:"ingest_error,omitempty"`
	IsArchived    bool         `json:"is_archived"`
	Ctime         int64        `json:"ctime"`
	Mtime         int64        `json:"mtime"`
}
