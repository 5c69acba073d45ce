package auth

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential record. PasswordDigest holds the hasher output and
// is never serialized.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username"`
	PasswordDigest []byte     `bun:"password_digest,notnull" json:"-"`
	Role           Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Clone returns a deep copy so stores never share digest buffers with callers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordDigest = bytes.Clone(u.PasswordDigest)
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if !record.Role.IsValid() {
		record.Role = RoleGuest
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now().UTC()
		record.CreatedAt = &now
	}
}

// Token is an issued bearer token. Value is the compact, header safe
// encoding; the other fields mirror what was signed.
type Token struct {
	Value     string    `json:"token"`
	Subject   string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
