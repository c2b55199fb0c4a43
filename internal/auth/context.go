package auth

import "context"

type ctxKey string

const userIDCtxKey ctxKey = "auth-user-id"

func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext returns the id of the logged in user set by the auth
// middleware, or false for unauthenticated requests.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDCtxKey).(int)
	return userID, ok
}
