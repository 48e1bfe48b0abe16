package server

import "context"

// SearchHit is one ranked match from the document backend.
type SearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Document is a full record fetched by id.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	URL      string `json:"url"`
	Metadata any    `json:"metadata"`
}

// VectorSearch is the document retrieval backend behind the search and
// fetch tools. Implementations own ranking, snippeting, and URLs.
type VectorSearch interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
	Fetch(ctx context.Context, id string) (*Document, error)
}

// NoopVectorSearch serves empty results. It stands in when no document
// backend is configured so the dataset tools still work.
type NoopVectorSearch struct{}

func (NoopVectorSearch) Search(ctx context.Context, query string) ([]SearchHit, error) {
	return []SearchHit{}, nil
}

func (NoopVectorSearch) Fetch(ctx context.Context, id string) (*Document, error) {
	return &Document{
		ID:    id,
		Title: "Document " + id,
		Text:  "No content available.",
	}, nil
}
