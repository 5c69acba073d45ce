package auth

import (
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest plaintext bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// DefaultPasswordCost is the bcrypt work factor used when none is configured.
const DefaultPasswordCost = 12

// BcryptHasher implements PasswordHasher with bcrypt. The digest embeds the
// salt and cost, so a hasher with a different cost still verifies it.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher using cost, or the build default when
// cost is zero.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = passwordHashCost()
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range", errors.CategoryValidation).
			WithMetadata(map[string]any{
				"cost": cost,
				"min":  bcrypt.MinCost,
				"max":  bcrypt.MaxCost,
			})
	}

	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the work factor used for new digests
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a salted digest for plaintext
func (h *BcryptHasher) Hash(plaintext string) ([]byte, error) {
	if len(plaintext) > MaxPasswordLength {
		return nil, wrapAs(bcrypt.ErrPasswordTooLong, ErrHashingFailure)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return nil, wrapAs(err, ErrHashingFailure)
	}

	return digest, nil
}

// Verify will validate the given plaintext matches the digest. A mismatch
// is not an error.
func (h *BcryptHasher) Verify(plaintext string, digest []byte) (bool, error) {
	if _, err := bcrypt.Cost(digest); err != nil {
		return false, wrapAs(err, ErrHashingFailure)
	}

	// bcrypt never produced a digest for a longer input
	if len(plaintext) > MaxPasswordLength {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword(digest, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, wrapAs(err, ErrHashingFailure)
	}
}
