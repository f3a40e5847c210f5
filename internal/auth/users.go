package auth

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// User - учётная запись REST API
type User struct {
	Username     string // Уникальное имя (без учёта регистра)
	PasswordHash string // bcrypt хеш
	IsAdmin      bool   // Право удалять игры
}

// UserRepository defines lookup of API users.
type UserRepository interface {
	// GetUserByUsername returns a user by username (case-insensitive).
	GetUserByUsername(username string) (*User, error)

	// ValidateCredentials validates username and password, returns user if valid
	ValidateCredentials(username, password string) (*User, error)

	// Len возвращает число пользователей
	Len() int
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// dummyHash сравнивается при неизвестном имени, чтобы время ответа не выдавало его
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)

// MemoryUserRepo is a threadsafe in-memory user list filled from configuration.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*User // key = lowercase(username)
}

// NewMemoryUserRepo returns an empty repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*User)}
}

// AddUser добавляет пользователя с готовым bcrypt хешем.
func (r *MemoryUserRepo) AddUser(username, passwordHash string, isAdmin bool) (*User, error) {
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, err
	}

	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin}
	r.users[key] = user
	return user, nil
}

// GetUserByUsername retrieves user by case-insensitive username.
func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[normalize(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ValidateCredentials проверяет пароль пользователя
func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		CheckPassword(string(dummyHash), password)
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Len возвращает число пользователей
func (r *MemoryUserRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// HashPassword returns a bcrypt hash of the password using DefaultCost.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Helper to normalise usernames.
func normalize(username string) string {
	return strings.ToLower(username)
}
