package domain

import "errors"

var (
	// ErrDuplicateIdentity is returned when a username or email (compared
	// case-insensitively) is already taken.
	ErrDuplicateIdentity = errors.New("username or email already exists")

	// ErrInvalidRole is returned for a user role outside the seeded role set
	// or a message role outside the enumerated set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStatus is returned for a status value outside its enumeration.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTransition is returned when a document status change is not
	// allowed by the processing state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrDocumentNotFound     = errors.New("document not found")

	// ErrSelfFollow is returned when a user attempts to follow themselves.
	ErrSelfFollow = errors.New("self follow not allowed")

	// ErrDuplicateFollow is returned when the follower edge already exists.
	ErrDuplicateFollow = errors.New("follow edge already exists")

	// ErrDuplicateChunk is returned when a chunk index is already taken
	// within a document.
	ErrDuplicateChunk = errors.New("chunk index already exists for document")

	// ErrConstraintViolation is the catch-all for storage-level constraint
	// failures that do not map to a more specific error above.
	ErrConstraintViolation = errors.New("constraint violation")
)
