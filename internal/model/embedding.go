package model

type BookmarkEmbedding struct {
	ID         string    `json:"id"`
	BookmarkID string    `json:"bookmark_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
	Ctime      int64     `json:"ctime"`
}
