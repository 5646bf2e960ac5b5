package store

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GORM models used for persistence. Column-level constraints live here;
// the parts GORM cannot express in tags (case-insensitive unique indexes,
// the role foreign key, the self-follow check) are raw DDL in gorm_store.go.
type RoleModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:50;uniqueIndex;not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (RoleModel) TableName() string { return "user_roles" }

type UserModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Username       string `gorm:"size:50;not null"`
	Email          string `gorm:"size:255;not null"`
	HashedPassword string `gorm:"size:255;not null"`

	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	FullName  string `gorm:"size:201"`
	AvatarURL string `gorm:"size:500"`
	Bio       string `gorm:"type:text"`

	Preferences datatypes.JSON `gorm:"type:jsonb"`
	Settings    datatypes.JSON `gorm:"type:jsonb"`

	Role       string `gorm:"size:50;not null;index"`
	IsActive   bool   `gorm:"not null;default:true"`
	IsVerified bool   `gorm:"not null;default:false"`

	FailedLoginAttempts int `gorm:"not null;default:0"`
	LockedUntil         *time.Time
	LastLogin           *time.Time
	LoginCount          int `gorm:"not null;default:0"`

	CreatedAt time.Time      `gorm:"not null;index"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

type FollowerModel struct {
	FollowerID string    `gorm:"type:uuid;primaryKey"`
	FollowedID string    `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"not null"`

	// Both endpoints cascade: deleting either user removes the edge.
	Follower UserModel `gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Followed UserModel `gorm:"foreignKey:FollowedID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (FollowerModel) TableName() string { return "user_followers" }

type ConversationModel struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	UserID        string         `gorm:"type:uuid;not null;index"`
	Title         string         `gorm:"size:255;not null"`
	Status        string         `gorm:"size:20;not null;default:'active';check:status IN ('active','archived','deleted')"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	LastMessageAt *time.Time     `gorm:"index"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`

	User UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ConversationModel) TableName() string { return "conversations" }

type MessageModel struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	ConversationID string  `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	UserID         *string `gorm:"type:uuid;index"`
	Role           string  `gorm:"size:20;not null;check:role IN ('user','assistant','system','function')"`
	Content        string  `gorm:"type:text"`

	Name         string         `gorm:"size:100"`
	FunctionCall datatypes.JSON `gorm:"type:jsonb"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`

	ParentMessageID *string        `gorm:"type:uuid;index"`
	Tokens          int            `gorm:"not null;default:0"`
	CreatedAt       time.Time      `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
	UpdatedAt       time.Time      `gorm:"not null"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`

	// Conversation deletion removes its messages; user deletion only clears
	// attribution; parent deletion detaches replies without cascading.
	Conversation ConversationModel `gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User         *UserModel        `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Parent       *MessageModel     `gorm:"foreignKey:ParentMessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (MessageModel) TableName() string { return "messages" }

type DocumentModel struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	UserID       string         `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"size:255;not null"`
	Description  string         `gorm:"type:text"`
	FilePath     string         `gorm:"size:500;not null"`
	FileType     string         `gorm:"size:50"`
	FileSize     int64          `gorm:"not null;default:0"`
	Status       string         `gorm:"size:20;not null;default:'uploaded';check:status IN ('uploaded','processing','processed','error','deleted')"`
	ErrorMessage string         `gorm:"type:text"`
	ProcessedAt  *time.Time
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	User UserModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (DocumentModel) TableName() string { return "documents" }

type ChunkModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	DocumentID string    `gorm:"type:uuid;not null;uniqueIndex:ux_document_chunks_doc_index,priority:1"`
	Content    string    `gorm:"type:text;not null"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:ux_document_chunks_doc_index,priority:2"`
	PageNumber *int
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`

	Document DocumentModel `gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ChunkModel) TableName() string { return "document_chunks" }
