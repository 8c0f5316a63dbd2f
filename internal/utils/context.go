package utils

import "context"

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "role"
	ServiceKey  contextKey = "service"
)

const RoleAdmin = "admin"

// SetUserContext sets user info into context (called by middleware)
func SetUserContext(ctx context.Context, id string, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// WithServiceCaller marks the request as coming from a trusted backend.
func WithServiceCaller(ctx context.Context) context.Context {
	return context.WithValue(ctx, ServiceKey, true)
}

func IsServiceCaller(ctx context.Context) bool {
	v, _ := ctx.Value(ServiceKey).(bool)
	return v
}
