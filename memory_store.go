package auth

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStore is a process local CredentialStore keyed by username.
// Records are cloned on the way in and out.
type MemoryStore struct {
	users *xsync.MapOf[string, *User]
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: xsync.NewMapOf[string, *User]()}
}

// Create stores user unless the username is taken. Concurrent creates of
// one username admit exactly one.
func (m *MemoryStore) Create(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.Username == "" {
		return ErrInvalidUsername
	}

	record := user.Clone()
	prepareUserDefaults(record)

	if _, loaded := m.users.LoadOrStore(record.Username, record); loaded {
		return ErrDuplicateUsername
	}

	user.ID = record.ID
	user.Role = record.Role
	user.CreatedAt = record.CreatedAt
	return nil
}

// FindByUsername returns a copy of the stored record.
func (m *MemoryStore) FindByUsername(ctx context.Context, username string) (*User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	record, ok := m.users.Load(username)
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

// Len returns the number of stored users
func (m *MemoryStore) Len() int {
	return m.users.Size()
}
