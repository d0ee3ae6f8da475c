// Package auth はユーザー登録・ログインとセッショントークンの検証を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/models"
	"github.com/yourusername/task-manager/internal/storage"
)

const invalidCredentialsMessage = "Invalid email or password"

// UserRepository はユーザーの永続化を担います。見つからない場合は nil を返します。
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Options は Manager の任意設定です。
type Options struct {
	// Limiter が nil の場合、ログイン試行制限は行いません。
	Limiter      LoginLimiter
	HashCost     int
	SecureCookie bool
}

// Manager はユーザー登録・認証処理をまとめた構造体です。
type Manager struct {
	users        UserRepository
	codec        *TokenCodec
	limiter      LoginLimiter
	hashCost     int
	secureCookie bool

	dummyOnce sync.Once
	dummyHash []byte
}

// NewManager は認証マネージャーを作成します。
func NewManager(users UserRepository, codec *TokenCodec, opts Options) *Manager {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Manager{
		users:        users,
		codec:        codec,
		limiter:      opts.Limiter,
		hashCost:     cost,
		secureCookie: opts.SecureCookie,
	}
}

// RegisterUser はユーザーを登録します。
func (m *Manager) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("All fields are required")
	}

	existing, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(apperr.CodeUserExists, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, apperr.Conflict(apperr.CodeUserExists, "User already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate はメールアドレスとパスワードを検証し、トークンを発行します。
// ユーザー不在とパスワード不一致は同じエラーを返します。
func (m *Manager) Authenticate(ctx context.Context, email, password string) (string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", time.Time{}, apperr.Validation("Email and password are required")
	}

	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// 未登録でも登録済みと同じコストの比較を行う
		_ = bcrypt.CompareHashAndPassword(m.fallbackHash(), []byte(password))
		return "", time.Time{}, apperr.Unauthenticated(apperr.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, apperr.Unauthenticated(apperr.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	token, expiresAt, err := m.codec.Issue(user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// LoadProfile は認証済みユーザーの情報を返します。
func (m *Manager) LoadProfile(ctx context.Context, p Principal) (*models.User, error) {
	user, err := m.users.FindByID(ctx, p.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "User not found")
	}
	return user, nil
}

func (m *Manager) fallbackHash() []byte {
	m.dummyOnce.Do(func() {
		m.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), m.hashCost)
	})
	return m.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
