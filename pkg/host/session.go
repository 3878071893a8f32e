package host

import (
	"context"
)

type currentUserKey struct{}

// WithCurrentUser binds a user id to the context as the session user
func WithCurrentUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, currentUserKey{}, userID)
}

// CurrentUserID returns the session user id carried by ctx, or 0 when anonymous
func CurrentUserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(currentUserKey{}).(int64); ok {
		return id
	}
	return 0
}

// currentUser resolves the session user against a store. Unknown or missing
// ids yield the anonymous zero User, never an error.
func currentUser(ctx context.Context, users UserStore) (User, error) {
	id := CurrentUserID(ctx)
	if id == 0 {
		return User{}, nil
	}
	u, err := users.GetUserByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return User{}, nil
		}
		return User{}, err
	}
	return u, nil
}
