package authctx

import "context"

type contextKey string

const userContextKey contextKey = "currentUser"

// CurrentUser is the authenticated owner resolved from the access token.
type CurrentUser struct {
	ID    int64
	Email string
	Name  string
}

func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func FromContext(ctx context.Context) *CurrentUser {
	val, ok := ctx.Value(userContextKey).(CurrentUser)
	if !ok {
		return nil
	}
	return &val
}
