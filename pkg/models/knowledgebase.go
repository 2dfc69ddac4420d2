package models

import "time"

// KnowledgeBase is a tenant-scoped container for documents, addressed
// by the retrieval core's vector and keyword indices.
type KnowledgeBase struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Category   string    `json:"category"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentState tracks a document through the ingestion pipeline.
type DocumentState string

const (
	DocumentUploaded      DocumentState = "uploaded"
	DocumentValidating    DocumentState = "validating"
	DocumentExtracting    DocumentState = "extracting"
	DocumentChunking      DocumentState = "chunking"
	DocumentContextualising DocumentState = "contextualising"
	DocumentEmbedding     DocumentState = "embedding"
	DocumentIndexing      DocumentState = "indexing"
	DocumentReady         DocumentState = "ready"
	DocumentFailed        DocumentState = "failed"
)

// MaxDocumentRetries is the number of consecutive failures allowed
// before a document is dead-lettered (spec.md §7).
const MaxDocumentRetries = 3

// Document belongs to one knowledge base. PredecessorVersionID forms a
// linear, acyclic version chain.
type Document struct {
	ID                   string        `json:"id"`
	TenantID             string        `json:"tenant_id"`
	KnowledgeBaseID      string        `json:"knowledge_base_id"`
	Name                 string        `json:"name"`
	BlobRef              string        `json:"blob_ref"`
	ContentType          string        `json:"content_type"`
	SizeBytes            int64         `json:"size_bytes"`
	ContentHash          string        `json:"content_hash"`
	State                DocumentState `json:"state"`
	Version              int           `json:"version"`
	PredecessorVersionID string        `json:"predecessor_version_id,omitempty"`
	RetryCount           int           `json:"retry_count"`
	DeadLettered         bool          `json:"dead_lettered"`
	LastError            string        `json:"last_error,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// RecordFailure increments the retry counter and dead-letters the
// document after MaxDocumentRetries consecutive failures.
func (d *Document) RecordFailure(message string) {
	d.RetryCount++
	d.LastError = message
	d.State = DocumentFailed
	if d.RetryCount >= MaxDocumentRetries {
		d.DeadLettered = true
	}
}

// ResetRetries clears the dead-letter flag and retry counter, used by
// the administrative retry endpoint.
func (d *Document) ResetRetries() {
	d.RetryCount = 0
	d.DeadLettered = false
	d.LastError = ""
}

// DocumentChunk belongs to one document.
type DocumentChunk struct {
	ID                string `json:"id"`
	TenantID          string `json:"tenant_id"`
	DocumentID        string `json:"document_id"`
	Content           string `json:"content"`
	ContextualPrefix  string `json:"contextual_prefix,omitempty"`
	Ordinal           int    `json:"ordinal"`
	ByteRangeStart    *int   `json:"byte_range_start,omitempty"`
	ByteRangeEnd      *int   `json:"byte_range_end,omitempty"`
	EmbeddingModel    string `json:"embedding_model,omitempty"`
	Embedding         []float64 `json:"-"`
}
