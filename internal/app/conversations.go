package app

import (
	"strings"

	"chatbase/internal/util"
	"chatbase/pkg/domain"
)

// CreateConversation opens a new active conversation owned by ownerID.
func (a *App) CreateConversation(ownerID, title string, metadata map[string]any) (domain.Conversation, error) {
	if _, ok, err := a.store.GetUser(ownerID); err != nil {
		return domain.Conversation{}, err
	} else if !ok {
		return domain.Conversation{}, domain.ErrUserNotFound
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultConversationTitle
	}
	now := a.now()
	conversation := domain.Conversation{
		ID:        util.NewID(),
		UserID:    ownerID,
		Title:     title,
		Status:    domain.ConversationActive,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateConversation(conversation); err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

// TransitionStatus moves a conversation to a new lifecycle status.
func (a *App) TransitionStatus(id string, status domain.ConversationStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	conversation, ok, err := a.store.GetConversation(id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConversationNotFound
	}
	conversation.Status = status
	conversation.UpdatedAt = a.now()
	return a.store.SaveConversation(conversation)
}

// RenameConversation sets a new title.
func (a *App) RenameConversation(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultConversationTitle
	}
	conversation, ok, err := a.store.GetConversation(id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConversationNotFound
	}
	conversation.Title = title
	conversation.UpdatedAt = a.now()
	return a.store.SaveConversation(conversation)
}

// GetConversation returns one conversation by ID.
func (a *App) GetConversation(id string) (domain.Conversation, error) {
	conversation, ok, err := a.store.GetConversation(id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !ok {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	return conversation, nil
}

// ListConversations returns the user's latest conversations.
func (a *App) ListConversations(userID string, limit int) ([]domain.Conversation, error) {
	return a.store.ListConversationsByUser(userID, limit)
}

// SoftDeleteConversation marks the conversation deleted; the row is kept.
func (a *App) SoftDeleteConversation(id string) error {
	if _, ok, err := a.store.GetConversation(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrConversationNotFound
	}
	return a.store.SoftDeleteConversation(id, a.now())
}

// DeleteConversation permanently removes the conversation and its messages.
func (a *App) DeleteConversation(id string) error {
	if _, ok, err := a.store.GetConversation(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrConversationNotFound
	}
	return a.store.DeleteConversation(id)
}
