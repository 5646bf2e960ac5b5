package domain

import (
	"strings"
	"time"
)

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
	ConversationDeleted  ConversationStatus = "deleted"
)

// Valid reports whether the status is one of the enumerated values.
func (s ConversationStatus) Valid() bool {
	switch s {
	case ConversationActive, ConversationArchived, ConversationDeleted:
		return true
	}
	return false
}

type MessageRole string

const (
	RoleMessageUser      MessageRole = "user"
	RoleMessageAssistant MessageRole = "assistant"
	RoleMessageSystem    MessageRole = "system"
	RoleMessageFunction  MessageRole = "function"
)

func (r MessageRole) Valid() bool {
	switch r {
	case RoleMessageUser, RoleMessageAssistant, RoleMessageSystem, RoleMessageFunction:
		return true
	}
	return false
}

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentError      DocumentStatus = "error"
	DocumentDeleted    DocumentStatus = "deleted"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentUploaded, DocumentProcessing, DocumentProcessed, DocumentError, DocumentDeleted:
		return true
	}
	return false
}

// Role names seeded into the user_roles reference table. The table allows
// administrative extension, so callers validate against the stored set, not
// against these constants alone.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	RoleCustomer   = "customer"
	RoleGuest      = "guest"
)

// Role is a row of the user_roles reference table.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`

	Preferences map[string]any `json:"preferences,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`

	Role       string `json:"role"`
	IsActive   bool   `json:"isActive"`
	IsVerified bool   `json:"isVerified"`

	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	LoginCount          int        `json:"loginCount"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Locked reports whether the account is locked out at the given time.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// ComputeFullName joins first and last name with a single space, tolerating
// either side being empty.
func ComputeFullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// FollowerEdge is a directed follower relation between two users.
type FollowerEdge struct {
	FollowerID string    `json:"followerId"`
	FollowedID string    `json:"followedId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Conversation struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	Title         string             `json:"title"`
	Status        ConversationStatus `json:"status"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	LastMessageAt *time.Time         `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	DeletedAt     *time.Time         `json:"deletedAt,omitempty"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	UserID         *string     `json:"userId,omitempty"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`

	// Name and FunctionCall carry function-role message detail.
	Name         string         `json:"name,omitempty"`
	FunctionCall map[string]any `json:"functionCall,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	ParentMessageID *string    `json:"parentMessageId,omitempty"`
	Tokens          int        `json:"tokens"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

type Document struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	FilePath     string         `json:"filePath"`
	FileType     string         `json:"fileType"`
	FileSize     int64          `json:"fileSize"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	ProcessedAt  *time.Time     `json:"processedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    *time.Time     `json:"deletedAt,omitempty"`
}

type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunkIndex"`
	PageNumber *int      `json:"pageNumber,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
