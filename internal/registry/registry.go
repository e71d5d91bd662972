package registry

import (
	"fmt"
	"sync"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
)

// UserDB defines the identity operations the auction service relies on
type UserDB interface {
	Register(username, password string) (*models.User, error)
	Login(username, password string) (*models.User, error)
	Lookup(username string) (*models.User, bool)
	SetDisplayName(user *models.User, name string)
	SetAdmin(user *models.User, admin bool)
}

// Registry is a concurrency-safe in-memory user registry keyed by username
type Registry struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	nextID int64
}

// NewRegistry creates an empty registry. User ids start at 1.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*models.User),
	}
}

// Register adds a user if the username is free. Existing accounts are never replaced.
func (r *Registry) Register(username, password string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return nil, fmt.Errorf("register %q: %w", username, auctionerrors.ErrDuplicateUsername)
	}

	r.nextID++
	u := models.NewUser(r.nextID, username, password)
	r.users[username] = u
	return u, nil
}

// Login returns the user when the username exists and the password matches.
// Unknown users and wrong passwords produce the same error.
func (r *Registry) Login(username, password string) (*models.User, error) {
	u, ok := r.Lookup(username)
	if !ok || !u.CheckPassword(password) {
		return nil, auctionerrors.ErrInvalidCredentials
	}
	return u, nil
}

func (r *Registry) Lookup(username string) (*models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	return u, ok
}

func (r *Registry) SetDisplayName(user *models.User, name string) {
	if user == nil {
		return
	}
	user.SetDisplayName(name)
}

func (r *Registry) SetAdmin(user *models.User, admin bool) {
	if user == nil {
		return
	}
	user.SetAdmin(admin)
}

// Count returns the number of registered users
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
