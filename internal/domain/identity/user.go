package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/carconfig/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength = 200
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

var bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	errEmailFormat   = shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	errEmailLength   = shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	errNameEmpty     = shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	errPasswordEmpty = shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	errPasswordLong  = shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
)

// User is a customer of the configurator. Good clients get shorter delivery
// estimates. HasCarConfiguration changes only inside the unit of work that
// creates or deletes the user's configuration.
type User struct {
	ID                  int64
	Email               string
	Name                string
	PasswordHash        string
	IsGoodClient        bool
	HasCarConfiguration bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewUser normalizes the email and stores a bcrypt hash of password.
func NewUser(email, name, password string, goodClient bool) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case len(email) > maxEmailLength:
		return nil, errEmailLength
	case !emailPattern.MatchString(email):
		return nil, errEmailFormat
	case strings.TrimSpace(name) == "":
		return nil, errNameEmpty
	case password == "":
		return nil, errPasswordEmpty
	case len(password) > maxPasswordBytes:
		return nil, errPasswordLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsGoodClient: goodClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) SetHasConfiguration(has bool) {
	u.HasCarConfiguration = has
	u.UpdatedAt = time.Now()
}
