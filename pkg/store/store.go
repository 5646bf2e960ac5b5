package store

import (
	"time"

	"chatbase/pkg/domain"
)

// Store defines persistence operations for users, conversations, messages,
// and documents. Implementations must enforce the constraint surface
// themselves (case-insensitive identity uniqueness, cascade vs set-null
// deletion, per-document chunk index uniqueness) so that callers racing on
// the same rows cannot bypass an invariant.
type Store interface {
	// roles
	SeedRoles(roles []domain.Role) error
	GetRole(name string) (domain.Role, bool, error)
	ListRoles() ([]domain.Role, error)

	// users
	CreateUser(domain.User) error
	SaveUser(domain.User) error
	GetUser(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	SoftDeleteUser(id string, at time.Time) error
	// DeleteUser hard-deletes the user in one transaction: owned
	// conversations and documents go with it, follower edges in both
	// directions are removed, and authored messages lose attribution but
	// survive.
	DeleteUser(id string) error

	// follower graph
	Follow(edge domain.FollowerEdge) error
	Unfollow(followerID, followedID string) error
	IsFollowing(followerID, followedID string) (bool, error)
	ListFollowers(userID string) ([]domain.User, error)
	ListFollowing(userID string) ([]domain.User, error)

	// conversations
	CreateConversation(domain.Conversation) error
	SaveConversation(domain.Conversation) error
	GetConversation(id string) (domain.Conversation, bool, error)
	ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error)
	SoftDeleteConversation(id string, at time.Time) error
	// DeleteConversation hard-deletes the conversation and all of its
	// messages.
	DeleteConversation(id string) error

	// messages
	// AppendMessage inserts the message and touches the owning
	// conversation's updated_at/last_message_at in the same transaction.
	AppendMessage(domain.Message) error
	GetMessage(id string) (domain.Message, bool, error)
	ListConversationMessages(conversationID string, limit int) ([]domain.Message, error)
	ListChildMessages(parentID string) ([]domain.Message, error)
	SoftDeleteMessage(id string, at time.Time) error
	// DeleteMessage hard-deletes the message after detaching child replies
	// (their parent_message_id is cleared, the children survive).
	DeleteMessage(id string) error

	// documents
	CreateDocument(domain.Document) error
	GetDocument(id string) (domain.Document, bool, error)
	ListDocumentsByOwner(ownerID string) ([]domain.Document, error)
	SetDocumentStatus(id string, status domain.DocumentStatus, errMsg string, processedAt *time.Time) error
	SoftDeleteDocument(id string, at time.Time) error
	// DeleteDocument hard-deletes the document and all of its chunks.
	DeleteDocument(id string) error

	// chunks
	AddChunk(domain.DocumentChunk) error
	ReplaceChunks(documentID string, chunks []domain.DocumentChunk) error
	ListChunks(documentID string) ([]domain.DocumentChunk, error)
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
