package app

import (
	"strings"
	"time"

	"chatbase/internal/util"
	"chatbase/pkg/auth"
	"chatbase/pkg/domain"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 30 * time.Minute
)

// CreateUser registers a new user. The role must be present in the seeded
// role set; username and email must be unique case-insensitively.
func (a *App) CreateUser(username, email, password, role string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return domain.User{}, ErrIdentityRequired
	}
	if password == "" {
		return domain.User{}, ErrPasswordRequired
	}
	if role == "" {
		role = domain.RoleCustomer
	}
	if _, ok, err := a.store.GetRole(role); err != nil {
		return domain.User{}, err
	} else if !ok {
		return domain.User{}, domain.ErrInvalidRole
	}
	if _, exists, err := a.store.GetUserByEmail(email); err != nil {
		return domain.User{}, err
	} else if exists {
		return domain.User{}, domain.ErrDuplicateIdentity
	}
	if _, exists, err := a.store.GetUserByUsername(username); err != nil {
		return domain.User{}, err
	} else if exists {
		return domain.User{}, domain.ErrDuplicateIdentity
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	now := a.now()
	user := domain.User{
		ID:             util.NewID(),
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.store.CreateUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ProfileUpdate carries optional profile fields; nil means leave unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	AvatarURL *string
	Bio       *string
}

// UpdateProfile applies profile changes. full_name is recomputed whenever
// first or last name changes, treating an absent side as empty.
func (a *App) UpdateProfile(id string, update ProfileUpdate) (domain.User, error) {
	user, ok, err := a.store.GetUser(id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	nameChanged := false
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
		nameChanged = true
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
		nameChanged = true
	}
	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if nameChanged {
		user.FullName = domain.ComputeFullName(user.FirstName, user.LastName)
	}
	user.UpdatedAt = a.now()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials by username or email. Five consecutive
// failures lock the account for thirty minutes; a successful login resets
// the counter.
func (a *App) Authenticate(usernameOrEmail, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByUsername(usernameOrEmail)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		user, ok, err = a.store.GetUserByEmail(usernameOrEmail)
		if err != nil {
			return domain.User{}, err
		}
	}
	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	now := a.now()
	if !user.IsActive || user.Locked(now) {
		return domain.User{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.HashedPassword) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			user.LockedUntil = &lockedUntil
		}
		user.UpdatedAt = now
		if err := a.store.SaveUser(user); err != nil {
			return domain.User{}, err
		}
		return domain.User{}, ErrInvalidCredentials
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	user.LoginCount++
	user.UpdatedAt = now
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Follow adds a directed follower edge. Users cannot follow themselves, and
// an existing edge is rejected rather than silently kept.
func (a *App) Follow(followerID, followedID string) error {
	if followerID == followedID {
		return domain.ErrSelfFollow
	}
	for _, id := range []string{followerID, followedID} {
		if _, ok, err := a.store.GetUser(id); err != nil {
			return err
		} else if !ok {
			return domain.ErrUserNotFound
		}
	}
	return a.store.Follow(domain.FollowerEdge{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  a.now(),
	})
}

// Unfollow removes a follower edge if present.
func (a *App) Unfollow(followerID, followedID string) error {
	return a.store.Unfollow(followerID, followedID)
}

// Followers returns the users following the given user.
func (a *App) Followers(userID string) ([]domain.User, error) {
	return a.store.ListFollowers(userID)
}

// Following returns the users the given user follows.
func (a *App) Following(userID string) ([]domain.User, error) {
	return a.store.ListFollowing(userID)
}

// GetUser returns a user by ID.
func (a *App) GetUser(id string) (domain.User, error) {
	user, ok, err := a.store.GetUser(id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// SoftDeleteUser marks the user deleted; the row is retained.
func (a *App) SoftDeleteUser(id string) error {
	if _, ok, err := a.store.GetUser(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrUserNotFound
	}
	return a.store.SoftDeleteUser(id, a.now())
}

// DeleteUser permanently removes the user. Owned conversations and
// documents are removed with it; messages the user authored in other
// conversations survive without attribution.
func (a *App) DeleteUser(id string) error {
	if _, ok, err := a.store.GetUser(id); err != nil {
		return err
	} else if !ok {
		return domain.ErrUserNotFound
	}
	return a.store.DeleteUser(id)
}
