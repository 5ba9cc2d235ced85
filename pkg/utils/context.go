package utils

import (
	"context"
	"time"

	"pem-system/internal/authz"
	"pem-system/pkg/contextkeys"
	apperrors "pem-system/pkg/errors"

	"github.com/labstack/echo/v4"
)

func ContextWithTimeout(ctx echo.Context, timeout int) (context.Context, context.CancelFunc) {
	reqCtx := ctx.Request().Context()
	return context.WithTimeout(reqCtx, time.Duration(timeout)*time.Second)
}

func WithIdentity(ctx context.Context, identity *authz.Identity) context.Context {
	ctx = context.WithValue(ctx, contextkeys.IdentityKey, identity)
	return context.WithValue(ctx, contextkeys.UserIDKey, identity.UserID)
}

func GetIdentityFromCtx(ctx context.Context) (*authz.Identity, error) {
	identity, ok := ctx.Value(contextkeys.IdentityKey).(*authz.Identity)
	if !ok || identity == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return identity, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// WithClientMeta сохраняет IP и User-Agent запроса для журнала аудита.
func WithClientMeta(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextkeys.ClientIPKey, ip)
	return context.WithValue(ctx, contextkeys.UserAgentKey, userAgent)
}

func ClientMetaFromCtx(ctx context.Context) (ip string, userAgent string) {
	ip, _ = ctx.Value(contextkeys.ClientIPKey).(string)
	userAgent, _ = ctx.Value(contextkeys.UserAgentKey).(string)
	return ip, userAgent
}
