package auth

import (
	"context"
	"net/http"
)

// User is the identity-provider view of a caller, as extracted from verified
// token claims.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

type contextKey string

const UserContextKey contextKey = "auth_user"

func GetUserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserContextKey).(*User)
	return user, ok
}

func GetUserFromRequest(r *http.Request) (*User, bool) {
	return GetUserFromContext(r.Context())
}
