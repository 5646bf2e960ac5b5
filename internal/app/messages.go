package app

import (
	"strings"

	"chatbase/internal/util"
	"chatbase/pkg/domain"
)

const defaultThreadDepth = 100

// PostMessageParams describes one message insert.
type PostMessageParams struct {
	ConversationID string
	AuthorID       *string
	Role           domain.MessageRole
	Content        string
	Name           string
	FunctionCall   map[string]any
	Metadata       map[string]any
	ParentID       *string
	Tokens         int
}

// PostMessage appends a message to a conversation. The insert and the
// conversation touch happen in one storage transaction. Whether a parent
// reference points into the same logical thread is left to the caller.
func (a *App) PostMessage(params PostMessageParams) (domain.Message, error) {
	if !params.Role.Valid() {
		return domain.Message{}, domain.ErrInvalidRole
	}
	// Function-role messages may carry their payload in FunctionCall instead
	// of Content.
	if strings.TrimSpace(params.Content) == "" && params.Role != domain.RoleMessageFunction {
		return domain.Message{}, ErrContentRequired
	}
	if _, ok, err := a.store.GetConversation(params.ConversationID); err != nil {
		return domain.Message{}, err
	} else if !ok {
		return domain.Message{}, domain.ErrConversationNotFound
	}
	now := a.now()
	msg := domain.Message{
		ID:              util.NewID(),
		ConversationID:  params.ConversationID,
		UserID:          params.AuthorID,
		Role:            params.Role,
		Content:         params.Content,
		Name:            params.Name,
		FunctionCall:    params.FunctionCall,
		Metadata:        params.Metadata,
		ParentMessageID: params.ParentID,
		Tokens:          params.Tokens,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.AppendMessage(msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// GetMessage returns one message by ID.
func (a *App) GetMessage(id string) (domain.Message, error) {
	msg, ok, err := a.store.GetMessage(id)
	if err != nil {
		return domain.Message{}, err
	}
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	return msg, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (a *App) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	return a.store.ListConversationMessages(conversationID, limit)
}

// Thread walks parent references from the given message toward the thread
// root and returns the chain root-first. The walk is bounded by maxDepth
// (defaulting when non-positive) so malformed data cannot recurse without
// limit; a dangling parent reference ends the walk.
func (a *App) Thread(messageID string, maxDepth int) ([]domain.Message, error) {
	if maxDepth <= 0 {
		maxDepth = defaultThreadDepth
	}
	msg, ok, err := a.store.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	chain := []domain.Message{msg}
	seen := map[string]bool{msg.ID: true}
	for len(chain) < maxDepth && msg.ParentMessageID != nil {
		parent, ok, err := a.store.GetMessage(*msg.ParentMessageID)
		if err != nil {
			return nil, err
		}
		if !ok || seen[parent.ID] {
			break
		}
		chain = append(chain, parent)
		seen[parent.ID] = true
		msg = parent
	}
	// Reverse so the root comes first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// SoftDeleteMessage marks the message deleted; the row is kept.
func (a *App) SoftDeleteMessage(id string) error {
	if _, ok, err := a.store.GetMessage(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrMessageNotFound
	}
	return a.store.SoftDeleteMessage(id, a.now())
}

// DeleteMessage permanently removes the message. Replies to it are kept and
// detached, so deleting one message never collapses a thread.
func (a *App) DeleteMessage(id string) error {
	if _, ok, err := a.store.GetMessage(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrMessageNotFound
	}
	return a.store.DeleteMessage(id)
}
