package app

import (
	"strings"
	"time"

	"chatbase/internal/util"
	"chatbase/pkg/domain"
)

// UploadDocument records a newly uploaded file owned by ownerID. Processing
// starts in status "uploaded".
func (a *App) UploadDocument(ownerID, title, filePath, fileType string, fileSize int64) (domain.Document, error) {
	if _, ok, err := a.store.GetUser(ownerID); err != nil {
		return domain.Document{}, err
	} else if !ok {
		return domain.Document{}, domain.ErrUserNotFound
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = filePath
	}
	now := a.now()
	doc := domain.Document{
		ID:        util.NewID(),
		UserID:    ownerID,
		Title:     title,
		FilePath:  filePath,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    domain.DocumentUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateDocument(doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// GetDocument returns one document by ID.
func (a *App) GetDocument(id string) (domain.Document, error) {
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return domain.Document{}, err
	}
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// ListDocuments returns the owner's documents.
func (a *App) ListDocuments(ownerID string) ([]domain.Document, error) {
	return a.store.ListDocumentsByOwner(ownerID)
}

// StartProcessing moves a document from uploaded to processing.
func (a *App) StartProcessing(id string) error {
	return a.transitionDocument(id, domain.DocumentProcessing, "")
}

// MarkProcessed moves a document from processing to processed and records
// the completion time.
func (a *App) MarkProcessed(id string) error {
	return a.transitionDocument(id, domain.DocumentProcessed, "")
}

// MarkError moves a document from processing to error with a message.
func (a *App) MarkError(id, message string) error {
	return a.transitionDocument(id, domain.DocumentError, message)
}

// transitionDocument enforces the processing state machine:
// uploaded -> processing -> {processed | error}. Terminal states are only
// left by re-uploading a new document; "deleted" is handled by
// SoftDeleteDocument and reachable from anywhere.
func (a *App) transitionDocument(id string, to domain.DocumentStatus, errMsg string) error {
	if !to.Valid() {
		return domain.ErrInvalidStatus
	}
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if !documentTransitionAllowed(doc.Status, to) {
		return domain.ErrInvalidTransition
	}
	var processedAt *time.Time
	if to == domain.DocumentProcessed {
		at := a.now()
		processedAt = &at
	}
	return a.store.SetDocumentStatus(id, to, errMsg, processedAt)
}

func documentTransitionAllowed(from, to domain.DocumentStatus) bool {
	switch to {
	case domain.DocumentProcessing:
		return from == domain.DocumentUploaded
	case domain.DocumentProcessed, domain.DocumentError:
		return from == domain.DocumentProcessing
	case domain.DocumentDeleted:
		return true
	}
	return false
}

// SoftDeleteDocument marks the document deleted; the row is kept.
func (a *App) SoftDeleteDocument(id string) error {
	if _, ok, err := a.store.GetDocument(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrDocumentNotFound
	}
	return a.store.SoftDeleteDocument(id, a.now())
}

// DeleteDocument permanently removes the document and its chunks.
func (a *App) DeleteDocument(id string) error {
	if _, ok, err := a.store.GetDocument(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrDocumentNotFound
	}
	return a.store.DeleteDocument(id)
}

// AddChunk stores one retrievable text unit of a processed document.
// chunk_index orders chunks during retrieval and is unique per document.
func (a *App) AddChunk(documentID string, index int, content string, page *int) (domain.DocumentChunk, error) {
	if _, ok, err := a.store.GetDocument(documentID); err != nil {
		return domain.DocumentChunk{}, err
	} else if !ok {
		return domain.DocumentChunk{}, domain.ErrDocumentNotFound
	}
	now := a.now()
	chunk := domain.DocumentChunk{
		ID:         util.NewID(),
		DocumentID: documentID,
		Content:    content,
		ChunkIndex: index,
		PageNumber: page,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.AddChunk(chunk); err != nil {
		return domain.DocumentChunk{}, err
	}
	return chunk, nil
}

// ChunkInput is one chunk in a ReplaceChunks batch.
type ChunkInput struct {
	Index   int
	Content string
	Page    *int
}

// ReplaceChunks swaps a document's chunks in one transaction, used when a
// document is re-processed.
func (a *App) ReplaceChunks(documentID string, inputs []ChunkInput) error {
	if _, ok, err := a.store.GetDocument(documentID); err != nil {
		return err
	} else if !ok {
		return domain.ErrDocumentNotFound
	}
	now := a.now()
	chunks := make([]domain.DocumentChunk, 0, len(inputs))
	for _, in := range inputs {
		chunks = append(chunks, domain.DocumentChunk{
			ID:         util.NewID(),
			DocumentID: documentID,
			Content:    in.Content,
			ChunkIndex: in.Index,
			PageNumber: in.Page,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return a.store.ReplaceChunks(documentID, chunks)
}

// ListChunks returns a document's chunks in chunk_index order.
func (a *App) ListChunks(documentID string) ([]domain.DocumentChunk, error) {
	return a.store.ListChunks(documentID)
}
