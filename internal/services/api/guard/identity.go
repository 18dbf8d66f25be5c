package guard

import "context"

type ctxKey int

const identityKey ctxKey = 1

// Identity accumulates what the strategies of one request proved.
type Identity struct {
	UserID   int64
	Operator bool
}

func (i Identity) Authenticated() bool { return i.UserID > 0 || i.Operator }

func IdentityFromCtx(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

func UserIDFromCtx(ctx context.Context) (int64, bool) {
	id := IdentityFromCtx(ctx)
	return id.UserID, id.UserID > 0
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
