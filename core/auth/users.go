package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

// Roles known to the API.
const (
	RoleAdmin  = "admin"
	RoleJudge  = "judge"
	RoleClerk  = "clerk"
	RoleLawyer = "lawyer"
)

const userPrefix = "user:"

var (
	ErrUserExists         = errors.New("username or email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

// User is an API account. The password hash is never serialized to clients.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	FullName     string    `json:"full_name"`
	PasswordHash []byte    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public drops the password hash.
func (u User) Public() User {
	u.PasswordHash = nil
	return u
}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleJudge, RoleClerk, RoleLawyer:
		return true
	}
	return false
}

// UserStore keeps accounts in the node's key-value store.
type UserStore struct {
	mu      sync.Mutex
	backend storage.StateBackend
	cost    int
}

// NewUserStore uses bcrypt.DefaultCost when cost is zero.
func NewUserStore(backend storage.StateBackend, cost int) *UserStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserStore{backend: backend, cost: cost}
}

func userKey(username string) string {
	return userPrefix + strings.ToLower(username)
}

// Register creates an account. Usernames and emails are unique, case
// insensitively.
func (s *UserStore) Register(username, email, password, role, fullName string) (User, error) {
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.backend.Get(userKey(username))
	if err == nil {
		return User{}, ErrUserExists
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return User{}, err
	}
	taken := false
	err = s.backend.Iterate(userPrefix, func(_ string, value []byte) error {
		var u User
		if err := json.Unmarshal(value, &u); err != nil {
			return err
		}
		if strings.EqualFold(u.Email, email) {
			taken = true
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		Username:     username,
		Email:        email,
		Role:         role,
		FullName:     fullName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := storage.PutJSON(s.backend, userKey(username), u); err != nil {
		return User{}, err
	}
	return u.Public(), nil
}

// Get returns the account without its password hash.
func (s *UserStore) Get(username string) (User, error) {
	var u User
	if err := storage.GetJSON(s.backend, userKey(username), &u); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u.Public(), nil
}

// Authenticate checks a password. Unknown users and wrong passwords give the
// same error.
func (s *UserStore) Authenticate(username, password string) (User, error) {
	var u User
	if err := storage.GetJSON(s.backend, userKey(username), &u); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u.Public(), nil
}

// EnsureAdmin creates the bootstrap administrator if it does not exist yet.
// It reports whether an account was created.
func (s *UserStore) EnsureAdmin(username, password string) (bool, error) {
	if _, err := s.Get(username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if password == "" {
		return false, errors.New("admin password is required to bootstrap the first account")
	}
	_, err := s.Register(username, username+"@judicial.local", password, RoleAdmin, "Administrador del Sistema")
	if err != nil {
		return false, err
	}
	return true, nil
}
