package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"chatbase/pkg/domain"
)

const migrateLockID int64 = 48124812

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent instances cannot race each other on DDL.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&RoleModel{},
			&UserModel{},
			&FollowerModel{},
			&ConversationModel{},
			&MessageModel{},
			&DocumentModel{},
			&ChunkModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		// Case-insensitive identity uniqueness scoped to non-deleted rows.
		if err := tx.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_lower
				ON users (LOWER(email)) WHERE deleted_at IS NULL;
			CREATE UNIQUE INDEX IF NOT EXISTS ux_users_username_lower
				ON users (LOWER(username)) WHERE deleted_at IS NULL;
		`).Error; err != nil {
			return fmt.Errorf("create identity indexes: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'users'
					AND constraint_name = 'users_role_fkey'
				) THEN
					ALTER TABLE users
					ADD CONSTRAINT users_role_fkey
					FOREIGN KEY (role) REFERENCES user_roles(name) ON UPDATE CASCADE;
				END IF;
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'user_followers'
					AND constraint_name = 'user_followers_no_self_follow'
				) THEN
					ALTER TABLE user_followers
					ADD CONSTRAINT user_followers_no_self_follow
					CHECK (follower_id <> followed_id);
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure role fkey and follow check: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SeedRoles inserts the reference role set, leaving existing rows untouched.
func (s *GormStore) SeedRoles(roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	models := make([]RoleModel, 0, len(roles))
	for _, r := range roles {
		models = append(models, roleToModel(r))
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models).Error
}

// GetRole looks up a role by name.
func (s *GormStore) GetRole(name string) (domain.Role, bool, error) {
	var model RoleModel
	if err := s.db.Where("name = ?", name).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Role{}, false, nil
		}
		return domain.Role{}, false, err
	}
	return roleFromModel(model), true, nil
}

// ListRoles returns all roles ordered by name.
func (s *GormStore) ListRoles() ([]domain.Role, error) {
	var models []RoleModel
	if err := s.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Role, 0, len(models))
	for _, m := range models {
		res = append(res, roleFromModel(m))
	}
	return res, nil
}

// CreateUser inserts a new user. Identity collisions surface as
// ErrDuplicateIdentity, an unknown role as ErrInvalidRole.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	err := s.db.Create(&model).Error
	return translate(err, domain.ErrDuplicateIdentity, domain.ErrInvalidRole)
}

// SaveUser updates an existing user or inserts it.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "email", "hashed_password",
			"first_name", "last_name", "full_name", "avatar_url", "bio",
			"preferences", "settings",
			"role", "is_active", "is_verified",
			"failed_login_attempts", "locked_until", "last_login", "login_count",
			"updated_at",
		}),
	}).Create(&model).Error
	return translate(err, domain.ErrDuplicateIdentity, domain.ErrInvalidRole)
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail looks up a user by email, case-insensitively.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.getUserWhere("LOWER(email) = LOWER(?)", email)
}

// GetUserByUsername looks up a user by username, case-insensitively.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.getUserWhere("LOWER(username) = LOWER(?)", username)
}

func (s *GormStore) getUserWhere(cond string, args ...any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(cond, args...).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SoftDeleteUser marks the user deleted without removing the row.
func (s *GormStore) SoftDeleteUser(id string, at time.Time) error {
	return s.db.Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": at.UTC(), "updated_at": at.UTC()}).Error
}

// DeleteUser hard-deletes the user and everything owned by it. The DDL-level
// foreign keys would cover this on Postgres; the steps stay explicit so the
// cascade order is visible and identical to MemoryStore.
func (s *GormStore) DeleteUser(id string) error {
	now := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"UPDATE messages SET user_id = NULL, updated_at = ? WHERE user_id = ?", now, id,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE user_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM conversations WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM document_chunks WHERE document_id IN (SELECT id FROM documents WHERE user_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM documents WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM user_followers WHERE follower_id = ? OR followed_id = ?", id, id,
		).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM users WHERE id = ?", id).Error
	})
}

// Follow inserts a follower edge.
func (s *GormStore) Follow(edge domain.FollowerEdge) error {
	model := FollowerModel{
		FollowerID: edge.FollowerID,
		FollowedID: edge.FollowedID,
		CreatedAt:  edge.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		if isCheckViolation(err) {
			return domain.ErrSelfFollow
		}
		return translate(err, domain.ErrDuplicateFollow, domain.ErrUserNotFound)
	}
	return nil
}

// Unfollow removes a follower edge if present.
func (s *GormStore) Unfollow(followerID, followedID string) error {
	return s.db.
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&FollowerModel{}).Error
}

// IsFollowing reports whether the edge exists.
func (s *GormStore) IsFollowing(followerID, followedID string) (bool, error) {
	var count int64
	err := s.db.Model(&FollowerModel{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

// ListFollowers returns the users following userID.
func (s *GormStore) ListFollowers(userID string) ([]domain.User, error) {
	return s.listEdgeUsers("f.follower_id = users.id", "f.followed_id = ?", userID)
}

// ListFollowing returns the users userID follows.
func (s *GormStore) ListFollowing(userID string) ([]domain.User, error) {
	return s.listEdgeUsers("f.followed_id = users.id", "f.follower_id = ?", userID)
}

func (s *GormStore) listEdgeUsers(join, cond, userID string) ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Model(&UserModel{}).
		Joins("JOIN user_followers f ON "+join).
		Where(cond, userID).
		Order("f.created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// CreateConversation inserts a conversation.
func (s *GormStore) CreateConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	err := s.db.Create(&model).Error
	return translate(err, domain.ErrConstraintViolation, domain.ErrUserNotFound)
}

// SaveConversation updates an existing conversation or inserts it.
func (s *GormStore) SaveConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "status", "metadata", "last_message_at", "updated_at",
		}),
	}).Create(&model).Error
	return translate(err, domain.ErrConstraintViolation, domain.ErrUserNotFound)
}

// GetConversation returns one conversation by ID.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversationsByUser returns latest conversations of a user.
func (s *GormStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ConversationModel
	if err := s.db.Where("user_id = ?", userID).
		Order("last_message_at DESC NULLS LAST").
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Conversation, 0, len(models))
	for _, model := range models {
		items = append(items, conversationFromModel(model))
	}
	return items, nil
}

// SoftDeleteConversation marks the conversation deleted and keeps the row.
func (s *GormStore) SoftDeleteConversation(id string, at time.Time) error {
	return s.db.Model(&ConversationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(domain.ConversationDeleted),
			"deleted_at": at.UTC(),
			"updated_at": at.UTC(),
		}).Error
}

// DeleteConversation removes the conversation and its messages.
func (s *GormStore) DeleteConversation(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM conversations WHERE id = ?", id).Error
	})
}

// AppendMessage inserts a message and touches the owning conversation in the
// same transaction, so a reader never sees one without the other.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conv ConversationModel
		if err := tx.First(&conv, "id = ?", msg.ConversationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrConversationNotFound
			}
			return err
		}
		if err := tx.Create(&model).Error; err != nil {
			return translate(err, domain.ErrConstraintViolation, domain.ErrConversationNotFound)
		}
		return tx.Model(&ConversationModel{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]any{
				"last_message_at": msg.CreatedAt.UTC(),
				"updated_at":      time.Now().UTC(),
			}).Error
	})
}

// GetMessage returns one message by ID.
func (s *GormStore) GetMessage(id string) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// ListConversationMessages returns messages for a conversation in
// chronological order.
func (s *GormStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// ListChildMessages returns direct replies to a message.
func (s *GormStore) ListChildMessages(parentID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("parent_message_id = ?", parentID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

// SoftDeleteMessage marks the message deleted and keeps the row.
func (s *GormStore) SoftDeleteMessage(id string, at time.Time) error {
	return s.db.Model(&MessageModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": at.UTC(), "updated_at": at.UTC()}).Error
}

// DeleteMessage detaches child replies, then removes the message. Siblings
// of a deleted parent stay intact.
func (s *GormStore) DeleteMessage(id string) error {
	now := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"UPDATE messages SET parent_message_id = NULL, updated_at = ? WHERE parent_message_id = ?", now, id,
		).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM messages WHERE id = ?", id).Error
	})
}

// CreateDocument inserts a document.
func (s *GormStore) CreateDocument(d domain.Document) error {
	model := documentToModel(d)
	err := s.db.Create(&model).Error
	return translate(err, domain.ErrConstraintViolation, domain.ErrUserNotFound)
}

// GetDocument retrieves a document.
func (s *GormStore) GetDocument(id string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// ListDocumentsByOwner returns documents filtered by owner.
func (s *GormStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// SetDocumentStatus updates document status, error message, and processing
// timestamp.
func (s *GormStore) SetDocumentStatus(id string, status domain.DocumentStatus, errMsg string, processedAt *time.Time) error {
	updates := map[string]any{
		"status":        string(status),
		"error_message": errMsg,
		"updated_at":    time.Now().UTC(),
	}
	if processedAt != nil {
		updates["processed_at"] = processedAt.UTC()
	}
	return s.db.Model(&DocumentModel{}).Where("id = ?", id).Updates(updates).Error
}

// SoftDeleteDocument marks the document deleted and keeps the row.
func (s *GormStore) SoftDeleteDocument(id string, at time.Time) error {
	return s.db.Model(&DocumentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(domain.DocumentDeleted),
			"deleted_at": at.UTC(),
			"updated_at": at.UTC(),
		}).Error
}

// DeleteDocument removes the document and its chunks.
func (s *GormStore) DeleteDocument(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM document_chunks WHERE document_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM documents WHERE id = ?", id).Error
	})
}

// AddChunk inserts one chunk. A taken chunk_index surfaces as
// ErrDuplicateChunk.
func (s *GormStore) AddChunk(chunk domain.DocumentChunk) error {
	model := chunkToModel(chunk)
	err := s.db.Create(&model).Error
	return translate(err, domain.ErrDuplicateChunk, domain.ErrDocumentNotFound)
}

// ReplaceChunks swaps all chunks of a document in one transaction.
func (s *GormStore) ReplaceChunks(documentID string, chunks []domain.DocumentChunk) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM document_chunks WHERE document_id = ?", documentID).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		models := make([]ChunkModel, 0, len(chunks))
		for _, chunk := range chunks {
			model := chunkToModel(chunk)
			model.DocumentID = documentID
			models = append(models, model)
		}
		if err := tx.CreateInBatches(&models, 200).Error; err != nil {
			return translate(err, domain.ErrDuplicateChunk, domain.ErrDocumentNotFound)
		}
		return nil
	})
}

// ListChunks returns chunks for a document in chunk_index order.
func (s *GormStore) ListChunks(documentID string) ([]domain.DocumentChunk, error) {
	var models []ChunkModel
	if err := s.db.Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	chunks := make([]domain.DocumentChunk, 0, len(models))
	for _, model := range models {
		chunks = append(chunks, chunkFromModel(model))
	}
	return chunks, nil
}

func roleToModel(r domain.Role) RoleModel {
	return RoleModel{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m RoleModel) domain.Role {
	return domain.Role{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		HashedPassword:      u.HashedPassword,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		FullName:            u.FullName,
		AvatarURL:           u.AvatarURL,
		Bio:                 u.Bio,
		Preferences:         mapToJSON(u.Preferences),
		Settings:            mapToJSON(u.Settings),
		Role:                u.Role,
		IsActive:            u.IsActive,
		IsVerified:          u.IsVerified,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockedUntil:         u.LockedUntil,
		LastLogin:           u.LastLogin,
		LoginCount:          u.LoginCount,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
		DeletedAt:           timeToDeletedAt(u.DeletedAt),
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		HashedPassword:      m.HashedPassword,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		FullName:            m.FullName,
		AvatarURL:           m.AvatarURL,
		Bio:                 m.Bio,
		Preferences:         jsonToMap(m.Preferences),
		Settings:            jsonToMap(m.Settings),
		Role:                m.Role,
		IsActive:            m.IsActive,
		IsVerified:          m.IsVerified,
		FailedLoginAttempts: m.FailedLoginAttempts,
		LockedUntil:         m.LockedUntil,
		LastLogin:           m.LastLogin,
		LoginCount:          m.LoginCount,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		DeletedAt:           deletedAtToTime(m.DeletedAt),
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		Status:        string(c.Status),
		Metadata:      mapToJSON(c.Metadata),
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		DeletedAt:     timeToDeletedAt(c.DeletedAt),
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:            m.ID,
		UserID:        m.UserID,
		Title:         m.Title,
		Status:        domain.ConversationStatus(m.Status),
		Metadata:      jsonToMap(m.Metadata),
		LastMessageAt: m.LastMessageAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		DeletedAt:     deletedAtToTime(m.DeletedAt),
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		ID:              msg.ID,
		ConversationID:  msg.ConversationID,
		UserID:          msg.UserID,
		Role:            string(msg.Role),
		Content:         msg.Content,
		Name:            msg.Name,
		FunctionCall:    mapToJSON(msg.FunctionCall),
		Metadata:        mapToJSON(msg.Metadata),
		ParentMessageID: msg.ParentMessageID,
		Tokens:          msg.Tokens,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       msg.UpdatedAt,
		DeletedAt:       timeToDeletedAt(msg.DeletedAt),
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		UserID:          m.UserID,
		Role:            domain.MessageRole(m.Role),
		Content:         m.Content,
		Name:            m.Name,
		FunctionCall:    jsonToMap(m.FunctionCall),
		Metadata:        jsonToMap(m.Metadata),
		ParentMessageID: m.ParentMessageID,
		Tokens:          m.Tokens,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		DeletedAt:       deletedAtToTime(m.DeletedAt),
	}
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:           d.ID,
		UserID:       d.UserID,
		Title:        d.Title,
		Description:  d.Description,
		FilePath:     d.FilePath,
		FileType:     d.FileType,
		FileSize:     d.FileSize,
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		ProcessedAt:  d.ProcessedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		DeletedAt:    timeToDeletedAt(d.DeletedAt),
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:           m.ID,
		UserID:       m.UserID,
		Title:        m.Title,
		Description:  m.Description,
		FilePath:     m.FilePath,
		FileType:     m.FileType,
		FileSize:     m.FileSize,
		Status:       domain.DocumentStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		ProcessedAt:  m.ProcessedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		DeletedAt:    deletedAtToTime(m.DeletedAt),
	}
}

func chunkToModel(chunk domain.DocumentChunk) ChunkModel {
	return ChunkModel{
		ID:         chunk.ID,
		DocumentID: chunk.DocumentID,
		Content:    chunk.Content,
		ChunkIndex: chunk.ChunkIndex,
		PageNumber: chunk.PageNumber,
		CreatedAt:  chunk.CreatedAt,
		UpdatedAt:  chunk.UpdatedAt,
	}
}

func chunkFromModel(model ChunkModel) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         model.ID,
		DocumentID: model.DocumentID,
		Content:    model.Content,
		ChunkIndex: model.ChunkIndex,
		PageNumber: model.PageNumber,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func mapToJSON(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	raw, _ := json.Marshal(m)
	return raw
}

func jsonToMap(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return m
}

func timeToDeletedAt(t *time.Time) gorm.DeletedAt {
	if t == nil {
		return gorm.DeletedAt{}
	}
	return gorm.DeletedAt{Time: *t, Valid: true}
}

func deletedAtToTime(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
