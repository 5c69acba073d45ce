package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// UserStore is the SQL backed CredentialStore. The unique index on
// users.username makes Create atomic across processes.
type UserStore struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ CredentialStore = (*UserStore)(nil)

// NewUserStore builds a UserStore over db
func NewUserStore(db *bun.DB) *UserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &UserStore{
		Repository: repo,
		db:         db,
	}
}

// Create inserts user. The id is derived from the username so retries of
// the same registration collide instead of duplicating.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	return s.CreateTx(ctx, s.db, user)
}

// CreateTx is Create inside tx
func (s *UserStore) CreateTx(ctx context.Context, tx bun.IDB, user *User) error {
	if user == nil || user.Username == "" {
		return ErrInvalidUsername
	}

	if user.ID == uuid.Nil {
		if id, err := hashid.NewUUID(user.Username); err == nil {
			user.ID = id
		}
	}
	prepareUserDefaults(user)

	if _, err := s.Repository.CreateTx(ctx, tx, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		// driver errors may arrive rewrapped, so confirm against the table
		if _, found, findErr := s.FindByUsernameTx(ctx, tx, user.Username); findErr == nil && found {
			return ErrDuplicateUsername
		}
		return wrapAs(err, ErrStoreUnavailable)
	}
	return nil
}

// FindByUsername looks up a user by exact username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*User, bool, error) {
	return s.FindByUsernameTx(ctx, s.db, username)
}

// FindByUsernameTx is FindByUsername inside tx
func (s *UserStore) FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, bool, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, false, nil
		}
		return nil, false, wrapAs(err, ErrStoreUnavailable)
	}

	return record, true, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
