package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrTokenExpired は有効期限切れのトークンです。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid は形式・署名・内容のいずれかが不正なトークンです。
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims はセッショントークンに含める内容です。
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenCodec は HS256 で署名したセッショントークンの発行と検証を行います。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec は TokenCodec を作成します。
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返します。
func (tc *TokenCodec) TTL() time.Duration {
	return tc.ttl
}

// Issue は userID のトークンを発行し、有効期限とともに返します。
func (tc *TokenCodec) Issue(userID primitive.ObjectID) (string, time.Time, error) {
	if userID.IsZero() {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	now := tc.now()
	expiresAt := now.Add(tc.ttl)
	claims := &Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークンを検証し、Principal を返します。
// 期限切れは ErrTokenExpired、それ以外の不正は ErrTokenInvalid を返します。
func (tc *TokenCodec) Parse(tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return tc.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return Principal{}, ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil || userID.IsZero() {
		return Principal{}, ErrTokenInvalid
	}
	return NewPrincipal(userID), nil
}
