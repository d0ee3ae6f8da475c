// Package apperr はAPI全体で共通のエラー分類とレスポンス変換を提供します。
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-manager/internal/logging"
)

// Kind はエラーの分類です。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// 共通のエラーコードです。
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeTokenMissing       = "TOKEN_MISSING"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserExists         = "USER_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeTaskNotFound       = "TASK_NOT_FOUND"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeInternal           = "INTERNAL_ERROR"
)

// InternalMessage はクライアントに返す汎用メッセージです。
const InternalMessage = "Server error. Please try again."

// Status は分類に対応する HTTP ステータスを返します。
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error はクライアントに返却可能なエラーです。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation は入力不備のエラーを作成します。
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidInput, Message: message}
}

// Unauthenticated は認証失敗のエラーを作成します。
func Unauthenticated(code, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: code, Message: message}
}

// NotFound は対象が存在しない（または所有者でない）場合のエラーを作成します。
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict は重複登録のエラーを作成します。
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// TooManyRequests は試行回数超過のエラーを作成します。
func TooManyRequests(message string) *Error {
	return &Error{Kind: KindTooManyRequests, Code: CodeTooManyAttempts, Message: message}
}

// KindOf は err の分類を返します。分類できないものは KindInternal です。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Respond は err を JSON レスポンスに変換して書き込みます。
// 分類外のエラーは原因をログに残し、クライアントには汎用メッセージのみ返します。
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		c.AbortWithStatusJSON(appErr.Kind.Status(), gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	logging.FromContext(c).WithError(err).Error("request failed")
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    CodeInternal,
		"message": InternalMessage,
	})
}
