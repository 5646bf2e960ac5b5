package app

import (
	"errors"
	"testing"

	"chatbase/pkg/domain"
)

func TestCreateConversationDefaults(t *testing.T) {
	a, _ := newTestApp(t)
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	conv, err := a.CreateConversation(user.ID, "  ", nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.Title != defaultConversationTitle {
		t.Fatalf("expected default title, got %q", conv.Title)
	}
	if conv.Status != domain.ConversationActive {
		t.Fatalf("expected active status, got %q", conv.Status)
	}

	if _, err := a.CreateConversation("ghost", "t", nil); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got: %v", err)
	}
}

func TestTransitionStatus(t *testing.T) {
	a, _ := newTestApp(t)
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	conv, err := a.CreateConversation(user.ID, "notes", nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if err := a.TransitionStatus(conv.ID, "paused"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got: %v", err)
	}
	if err := a.TransitionStatus("ghost", domain.ConversationArchived); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected conversation not found, got: %v", err)
	}

	if err := a.TransitionStatus(conv.ID, domain.ConversationArchived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := a.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Status != domain.ConversationArchived {
		t.Fatalf("expected archived, got %q", got.Status)
	}
	if !got.UpdatedAt.After(conv.UpdatedAt) {
		t.Fatalf("updated_at must move forward: %v -> %v", conv.UpdatedAt, got.UpdatedAt)
	}
}

func TestRenameConversation(t *testing.T) {
	a, _ := newTestApp(t)
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	conv, err := a.CreateConversation(user.ID, "draft", nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if err := a.RenameConversation(conv.ID, "final"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := a.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "final" {
		t.Fatalf("expected title %q, got %q", "final", got.Title)
	}
	if !got.UpdatedAt.After(conv.UpdatedAt) {
		t.Fatalf("updated_at must move forward on rename")
	}
}

func TestSoftDeleteConversation(t *testing.T) {
	a, _ := newTestApp(t)
	user, err := a.CreateUser("ada", "ada@example.com", "s3cret", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	conv, err := a.CreateConversation(user.ID, "notes", nil)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if err := a.SoftDeleteConversation(conv.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := a.GetConversation(conv.ID); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected conversation not found, got: %v", err)
	}
	convs, err := a.ListConversations(user.ID, 0)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("soft-deleted conversation must not be listed, got %d", len(convs))
	}
}
