package utils

import (
	"context"

	"pizza-service/internal/data/entity"
)

type contextKey string

// IdentityKey holds the entity.Identity resolved by AuthSession.
const IdentityKey contextKey = "identity"

func GetIdentityFromContext(ctx context.Context) (entity.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(entity.Identity)
	return identity, ok
}

func SetIdentityContext(ctx context.Context, identity entity.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
