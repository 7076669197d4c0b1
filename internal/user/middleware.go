package user

import (
	"context"
	"log"
	"net/http"

	"github.com/visiona-app/visiona/internal/auth"
	"github.com/visiona-app/visiona/internal/models"
)

type dbContextKey string

const (
	dbUserContextKey dbContextKey = "db_user"
)

func GetDBUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(dbUserContextKey).(*models.User)
	return user, ok
}

func ContextWithDBUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, dbUserContextKey, user)
}

func UserMiddleware(userService Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUser, ok := auth.GetUserFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized: User not found in context", http.StatusUnauthorized)
				return
			}

			dbUser, err := userService.GetOrCreate(
				r.Context(),
				authUser.ID,
				authUser.Email,
				authUser.FirstName,
				authUser.LastName,
			)
			if err != nil {
				log.Printf("Failed to get or create user: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := ContextWithDBUser(r.Context(), dbUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
