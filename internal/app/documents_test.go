package app

import (
	"errors"
	"testing"

	"chatbase/pkg/domain"
)

func seedDocument(t *testing.T, a *App) (domain.User, domain.Document) {
	t.Helper()
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	doc, err := a.UploadDocument(user.ID, "Notes", "/uploads/notes.pdf", "pdf", 2048)
	if err != nil {
		t.Fatalf("upload document: %v", err)
	}
	return user, doc
}

func TestUploadDocument(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)
	if doc.Status != domain.DocumentUploaded {
		t.Fatalf("expected uploaded status, got %q", doc.Status)
	}

	if _, err := a.UploadDocument("ghost", "t", "/p", "pdf", 1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got: %v", err)
	}

	// A missing title falls back to the file path.
	user, _ := a.GetUser(doc.UserID)
	other, err := a.UploadDocument(user.ID, "  ", "/uploads/raw.txt", "txt", 1)
	if err != nil {
		t.Fatalf("upload untitled: %v", err)
	}
	if other.Title != "/uploads/raw.txt" {
		t.Fatalf("expected path as title, got %q", other.Title)
	}
}

func TestDocumentProcessingLifecycle(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)

	// processed is only reachable through processing.
	if err := a.MarkProcessed(doc.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
	if err := a.StartProcessing(doc.ID); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	if err := a.StartProcessing(doc.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on repeat, got: %v", err)
	}

	if _, err := a.AddChunk(doc.ID, 0, "first page text", nil); err != nil {
		t.Fatalf("add chunk 0: %v", err)
	}
	page := 2
	if _, err := a.AddChunk(doc.ID, 1, "second page text", &page); err != nil {
		t.Fatalf("add chunk 1: %v", err)
	}

	if err := a.MarkProcessed(doc.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	got, err := a.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.Status != domain.DocumentProcessed {
		t.Fatalf("expected processed, got %q", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Fatalf("processed_at should be recorded")
	}

	chunks, err := a.ListChunks(doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 2 || chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Fatalf("chunks not in index order: %+v", chunks)
	}
}

func TestDocumentProcessingFailure(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)

	if err := a.MarkError(doc.ID, "boom"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("error is only reachable from processing, got: %v", err)
	}
	if err := a.StartProcessing(doc.ID); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	if err := a.MarkError(doc.ID, "parser gave up"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	got, err := a.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.Status != domain.DocumentError || got.ErrorMessage != "parser gave up" {
		t.Fatalf("error state not recorded: status=%q message=%q", got.Status, got.ErrorMessage)
	}

	if err := a.StartProcessing("ghost"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got: %v", err)
	}
}

func TestAddChunkDuplicateIndex(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)

	if _, err := a.AddChunk(doc.ID, 0, "a", nil); err != nil {
		t.Fatalf("add chunk: %v", err)
	}
	if _, err := a.AddChunk(doc.ID, 0, "b", nil); !errors.Is(err, domain.ErrDuplicateChunk) {
		t.Fatalf("expected duplicate chunk, got: %v", err)
	}
	if _, err := a.AddChunk("ghost", 0, "c", nil); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got: %v", err)
	}
}

func TestReplaceChunks(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)
	if _, err := a.AddChunk(doc.ID, 0, "stale", nil); err != nil {
		t.Fatalf("add chunk: %v", err)
	}

	err := a.ReplaceChunks(doc.ID, []ChunkInput{
		{Index: 1, Content: "second"},
		{Index: 0, Content: "first"},
	})
	if err != nil {
		t.Fatalf("replace chunks: %v", err)
	}
	chunks, err := a.ListChunks(doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Content != "first" || chunks[1].Content != "second" {
		t.Fatalf("unexpected chunks after replace: %+v", chunks)
	}
}

func TestDeleteDocumentRemovesChunks(t *testing.T) {
	a, _ := newTestApp(t)
	_, doc := seedDocument(t, a)
	if _, err := a.AddChunk(doc.ID, 0, "text", nil); err != nil {
		t.Fatalf("add chunk: %v", err)
	}

	if err := a.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if _, err := a.GetDocument(doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got: %v", err)
	}
	chunks, err := a.ListChunks(doc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("chunks should cascade with the document, got %d", len(chunks))
	}
}

func TestSoftDeleteDocument(t *testing.T) {
	a, _ := newTestApp(t)
	user, doc := seedDocument(t, a)

	if err := a.SoftDeleteDocument(doc.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := a.GetDocument(doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document not found, got: %v", err)
	}
	docs, err := a.ListDocuments(user.ID)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("soft-deleted document must not be listed, got %d", len(docs))
	}
}
