package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chatbase/pkg/domain"
)

// MemoryStore keeps all state in-process. It mirrors the constraint
// semantics of GormStore exactly (case-insensitive identity uniqueness,
// cascade vs set-null deletion, soft-deleted rows hidden from reads) and
// backs the test suite.
type MemoryStore struct {
	mu sync.RWMutex

	roles     map[string]domain.Role // role name -> role
	users     map[string]domain.User
	emails    map[string]string // lower(email) -> user ID, non-deleted rows only
	usernames map[string]string // lower(username) -> user ID, non-deleted rows only

	follows map[string]map[string]domain.FollowerEdge // follower ID -> followed ID -> edge

	convs  map[string]domain.Conversation
	msgs   map[string]domain.Message
	msgSeq map[string]int // message ID -> insertion order, stable sort tiebreak
	seq    int

	docs   map[string]domain.Document
	chunks map[string]domain.DocumentChunk
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:     make(map[string]domain.Role),
		users:     make(map[string]domain.User),
		emails:    make(map[string]string),
		usernames: make(map[string]string),
		follows:   make(map[string]map[string]domain.FollowerEdge),
		convs:     make(map[string]domain.Conversation),
		msgs:      make(map[string]domain.Message),
		msgSeq:    make(map[string]int),
		docs:      make(map[string]domain.Document),
		chunks:    make(map[string]domain.DocumentChunk),
	}
}

// SeedRoles inserts roles, leaving existing names untouched.
func (m *MemoryStore) SeedRoles(roles []domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range roles {
		if _, exists := m.roles[r.Name]; !exists {
			m.roles[r.Name] = r
		}
	}
	return nil
}

// GetRole looks up a role by name.
func (m *MemoryStore) GetRole(name string) (domain.Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[name]
	return r, ok, nil
}

// ListRoles returns all roles ordered by name.
func (m *MemoryStore) ListRoles() ([]domain.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Role, 0, len(m.roles))
	for _, r := range m.roles {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// CreateUser inserts a new user, enforcing role membership and
// case-insensitive identity uniqueness.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[u.Role]; !ok {
		return domain.ErrInvalidRole
	}
	emailKey := strings.ToLower(u.Email)
	usernameKey := strings.ToLower(u.Username)
	if _, taken := m.emails[emailKey]; taken {
		return domain.ErrDuplicateIdentity
	}
	if _, taken := m.usernames[usernameKey]; taken {
		return domain.ErrDuplicateIdentity
	}
	m.users[u.ID] = u
	m.emails[emailKey] = u.ID
	m.usernames[usernameKey] = u.ID
	return nil
}

// SaveUser updates an existing user or inserts it.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[u.Role]; !ok {
		return domain.ErrInvalidRole
	}
	emailKey := strings.ToLower(u.Email)
	usernameKey := strings.ToLower(u.Username)
	if owner, taken := m.emails[emailKey]; taken && owner != u.ID {
		return domain.ErrDuplicateIdentity
	}
	if owner, taken := m.usernames[usernameKey]; taken && owner != u.ID {
		return domain.ErrDuplicateIdentity
	}
	if prev, ok := m.users[u.ID]; ok {
		delete(m.emails, strings.ToLower(prev.Email))
		delete(m.usernames, strings.ToLower(prev.Username))
	}
	m.users[u.ID] = u
	if u.DeletedAt == nil {
		m.emails[emailKey] = u.ID
		m.usernames[usernameKey] = u.ID
	}
	return nil
}

// GetUser returns a user by ID. Soft-deleted rows are hidden.
func (m *MemoryStore) GetUser(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

// GetUserByEmail looks up a user by email, case-insensitively.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// GetUserByUsername looks up a user by username, case-insensitively.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[strings.ToLower(username)]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// ListUsers returns non-deleted users ordered by created_at.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if u.DeletedAt == nil {
			res = append(res, u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// SoftDeleteUser marks the user deleted and frees its identity keys.
func (m *MemoryStore) SoftDeleteUser(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil
	}
	at = at.UTC()
	u.DeletedAt = &at
	u.UpdatedAt = at
	m.users[id] = u
	delete(m.emails, strings.ToLower(u.Email))
	delete(m.usernames, strings.ToLower(u.Username))
	return nil
}

// DeleteUser hard-deletes the user with the full cascade: owned
// conversations (and their messages) and documents (and their chunks) are
// removed, follower edges in both directions disappear, and messages the
// user authored elsewhere lose attribution only.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	for msgID, msg := range m.msgs {
		if msg.UserID != nil && *msg.UserID == id {
			msg.UserID = nil
			msg.UpdatedAt = now
			m.msgs[msgID] = msg
		}
	}
	for convID, conv := range m.convs {
		if conv.UserID != id {
			continue
		}
		for msgID, msg := range m.msgs {
			if msg.ConversationID == convID {
				delete(m.msgs, msgID)
				delete(m.msgSeq, msgID)
			}
		}
		delete(m.convs, convID)
	}
	for docID, doc := range m.docs {
		if doc.UserID != id {
			continue
		}
		for chunkID, chunk := range m.chunks {
			if chunk.DocumentID == docID {
				delete(m.chunks, chunkID)
			}
		}
		delete(m.docs, docID)
	}
	delete(m.follows, id)
	for follower := range m.follows {
		delete(m.follows[follower], id)
	}
	delete(m.users, id)
	delete(m.emails, strings.ToLower(u.Email))
	delete(m.usernames, strings.ToLower(u.Username))
	return nil
}

// Follow inserts a follower edge.
func (m *MemoryStore) Follow(edge domain.FollowerEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if edge.FollowerID == edge.FollowedID {
		return domain.ErrSelfFollow
	}
	if _, ok := m.users[edge.FollowerID]; !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := m.users[edge.FollowedID]; !ok {
		return domain.ErrUserNotFound
	}
	if _, exists := m.follows[edge.FollowerID][edge.FollowedID]; exists {
		return domain.ErrDuplicateFollow
	}
	if m.follows[edge.FollowerID] == nil {
		m.follows[edge.FollowerID] = make(map[string]domain.FollowerEdge)
	}
	m.follows[edge.FollowerID][edge.FollowedID] = edge
	return nil
}

// Unfollow removes a follower edge if present.
func (m *MemoryStore) Unfollow(followerID, followedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.follows[followerID], followedID)
	return nil
}

// IsFollowing reports whether the edge exists.
func (m *MemoryStore) IsFollowing(followerID, followedID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.follows[followerID][followedID]
	return ok, nil
}

// ListFollowers returns the users following userID, oldest edge first.
func (m *MemoryStore) ListFollowers(userID string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var edges []domain.FollowerEdge
	for _, followed := range m.follows {
		if edge, ok := followed[userID]; ok {
			edges = append(edges, edge)
		}
	}
	return m.edgeUsers(edges, func(e domain.FollowerEdge) string { return e.FollowerID }), nil
}

// ListFollowing returns the users userID follows, oldest edge first.
func (m *MemoryStore) ListFollowing(userID string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var edges []domain.FollowerEdge
	for _, edge := range m.follows[userID] {
		edges = append(edges, edge)
	}
	return m.edgeUsers(edges, func(e domain.FollowerEdge) string { return e.FollowedID }), nil
}

func (m *MemoryStore) edgeUsers(edges []domain.FollowerEdge, pick func(domain.FollowerEdge) string) []domain.User {
	sort.Slice(edges, func(i, j int) bool { return edges[i].CreatedAt.Before(edges[j].CreatedAt) })
	res := make([]domain.User, 0, len(edges))
	for _, e := range edges {
		if u, ok := m.users[pick(e)]; ok && u.DeletedAt == nil {
			res = append(res, u)
		}
	}
	return res
}

// CreateConversation inserts a conversation.
func (m *MemoryStore) CreateConversation(c domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[c.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	m.convs[c.ID] = c
	return nil
}

// SaveConversation updates an existing conversation or inserts it.
func (m *MemoryStore) SaveConversation(c domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[c.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	m.convs[c.ID] = c
	return nil
}

// GetConversation returns one conversation by ID. Soft-deleted rows are
// hidden.
func (m *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convs[id]
	if !ok || c.DeletedAt != nil {
		return domain.Conversation{}, false, nil
	}
	return c, true, nil
}

// ListConversationsByUser returns latest conversations of a user.
func (m *MemoryStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Conversation
	for _, c := range m.convs {
		if c.UserID == userID && c.DeletedAt == nil {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt != nil:
			if !a.LastMessageAt.Equal(*b.LastMessageAt) {
				return a.LastMessageAt.After(*b.LastMessageAt)
			}
		case a.LastMessageAt != nil:
			return true
		case b.LastMessageAt != nil:
			return false
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// SoftDeleteConversation marks the conversation deleted and keeps the row.
func (m *MemoryStore) SoftDeleteConversation(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok || c.DeletedAt != nil {
		return nil
	}
	at = at.UTC()
	c.Status = domain.ConversationDeleted
	c.DeletedAt = &at
	c.UpdatedAt = at
	m.convs[id] = c
	return nil
}

// DeleteConversation removes the conversation and its messages.
func (m *MemoryStore) DeleteConversation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for msgID, msg := range m.msgs {
		if msg.ConversationID == id {
			delete(m.msgs, msgID)
			delete(m.msgSeq, msgID)
		}
	}
	delete(m.convs, id)
	return nil
}

// AppendMessage inserts a message and touches the owning conversation.
func (m *MemoryStore) AppendMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[msg.ConversationID]
	if !ok || conv.DeletedAt != nil {
		return domain.ErrConversationNotFound
	}
	m.msgs[msg.ID] = msg
	m.seq++
	m.msgSeq[msg.ID] = m.seq
	at := msg.CreatedAt.UTC()
	conv.LastMessageAt = &at
	conv.UpdatedAt = time.Now().UTC()
	m.convs[msg.ConversationID] = conv
	return nil
}

// GetMessage returns one message by ID. Soft-deleted rows are hidden.
func (m *MemoryStore) GetMessage(id string) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.msgs[id]
	if !ok || msg.DeletedAt != nil {
		return domain.Message{}, false, nil
	}
	return msg, true, nil
}

// ListConversationMessages returns messages in chronological order.
func (m *MemoryStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := m.sortedMessages(func(msg domain.Message) bool {
		return msg.ConversationID == conversationID
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ListChildMessages returns direct replies to a message.
func (m *MemoryStore) ListChildMessages(parentID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedMessages(func(msg domain.Message) bool {
		return msg.ParentMessageID != nil && *msg.ParentMessageID == parentID
	}), nil
}

func (m *MemoryStore) sortedMessages(match func(domain.Message) bool) []domain.Message {
	var res []domain.Message
	for _, msg := range m.msgs {
		if msg.DeletedAt == nil && match(msg) {
			res = append(res, msg)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return m.msgSeq[res[i].ID] < m.msgSeq[res[j].ID]
	})
	return res
}

// SoftDeleteMessage marks the message deleted and keeps the row.
func (m *MemoryStore) SoftDeleteMessage(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok || msg.DeletedAt != nil {
		return nil
	}
	at = at.UTC()
	msg.DeletedAt = &at
	msg.UpdatedAt = at
	m.msgs[id] = msg
	return nil
}

// DeleteMessage detaches child replies, then removes the message.
func (m *MemoryStore) DeleteMessage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for childID, child := range m.msgs {
		if child.ParentMessageID != nil && *child.ParentMessageID == id {
			child.ParentMessageID = nil
			child.UpdatedAt = now
			m.msgs[childID] = child
		}
	}
	delete(m.msgs, id)
	delete(m.msgSeq, id)
	return nil
}

// CreateDocument inserts a document.
func (m *MemoryStore) CreateDocument(d domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[d.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	m.docs[d.ID] = d
	return nil
}

// GetDocument retrieves a document. Soft-deleted rows are hidden.
func (m *MemoryStore) GetDocument(id string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok || d.DeletedAt != nil {
		return domain.Document{}, false, nil
	}
	return d, true, nil
}

// ListDocumentsByOwner returns documents filtered by owner.
func (m *MemoryStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Document
	for _, d := range m.docs {
		if d.UserID == ownerID && d.DeletedAt == nil {
			res = append(res, d)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// SetDocumentStatus updates status, error message, and processing timestamp.
func (m *MemoryStore) SetDocumentStatus(id string, status domain.DocumentStatus, errMsg string, processedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.DeletedAt != nil {
		return nil
	}
	d.Status = status
	d.ErrorMessage = errMsg
	if processedAt != nil {
		at := processedAt.UTC()
		d.ProcessedAt = &at
	}
	d.UpdatedAt = time.Now().UTC()
	m.docs[id] = d
	return nil
}

// SoftDeleteDocument marks the document deleted and keeps the row.
func (m *MemoryStore) SoftDeleteDocument(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.DeletedAt != nil {
		return nil
	}
	at = at.UTC()
	d.Status = domain.DocumentDeleted
	d.DeletedAt = &at
	d.UpdatedAt = at
	m.docs[id] = d
	return nil
}

// DeleteDocument removes the document and its chunks.
func (m *MemoryStore) DeleteDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for chunkID, chunk := range m.chunks {
		if chunk.DocumentID == id {
			delete(m.chunks, chunkID)
		}
	}
	delete(m.docs, id)
	return nil
}

// AddChunk inserts one chunk, enforcing per-document chunk_index uniqueness.
func (m *MemoryStore) AddChunk(chunk domain.DocumentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[chunk.DocumentID]; !ok {
		return domain.ErrDocumentNotFound
	}
	for _, existing := range m.chunks {
		if existing.DocumentID == chunk.DocumentID && existing.ChunkIndex == chunk.ChunkIndex {
			return domain.ErrDuplicateChunk
		}
	}
	m.chunks[chunk.ID] = chunk
	return nil
}

// ReplaceChunks swaps all chunks of a document.
func (m *MemoryStore) ReplaceChunks(documentID string, chunks []domain.DocumentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[documentID]; !ok {
		return domain.ErrDocumentNotFound
	}
	seen := make(map[int]bool, len(chunks))
	for _, chunk := range chunks {
		if seen[chunk.ChunkIndex] {
			return domain.ErrDuplicateChunk
		}
		seen[chunk.ChunkIndex] = true
	}
	for chunkID, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			delete(m.chunks, chunkID)
		}
	}
	for _, chunk := range chunks {
		chunk.DocumentID = documentID
		m.chunks[chunk.ID] = chunk
	}
	return nil
}

// ListChunks returns chunks for a document in chunk_index order.
func (m *MemoryStore) ListChunks(documentID string) ([]domain.DocumentChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.DocumentChunk
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			res = append(res, chunk)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ChunkIndex < res[j].ChunkIndex })
	return res, nil
}
