package auth

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// contextPrincipalKey は、ハンドラー間で認証済みユーザーを共有するためのキーです。
const contextPrincipalKey = "auth.principal"

// Principal は検証済みトークンから得た認証済みユーザーです。
// 値は不変で、リクエストボディやパスから組み立て直すことはありません。
type Principal struct {
	userID primitive.ObjectID
}

// NewPrincipal は userID の Principal を作成します。
func NewPrincipal(userID primitive.ObjectID) Principal {
	return Principal{userID: userID}
}

// UserID は認証済みユーザーのIDを返します。
func (p Principal) UserID() primitive.ObjectID {
	return p.userID
}

// IsZero は Principal が未設定かどうかを返します。
func (p Principal) IsZero() bool {
	return p.userID.IsZero()
}

// PrincipalFrom は RequireLogin が設定した Principal を取り出します。
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(contextPrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(contextPrincipalKey, p)
}
