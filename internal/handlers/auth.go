package handlers

import (
	"context"
	"errors"

	"github.com/nimasrn/parcel-shipping/internal/identity"
	"github.com/nimasrn/parcel-shipping/internal/model"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
)

type SessionProvider interface {
	Lookup(ctx context.Context, token string) (*model.User, error)
	SignOut(ctx context.Context, token string) error
}

func sessionToken(ctx *xhttp.RequestCtx) string {
	return identity.TokenFrom(
		string(ctx.Request.Header.Peek("Authorization")),
		string(ctx.Request.Header.Cookie(identity.CookieName)),
	)
}

// requireUser resolves the session user or writes the error response.
// ok is false when the request has been answered already.
func requireUser(ctx *xhttp.RequestCtx, sessions SessionProvider) (user *model.User, token string, ok bool) {
	token = sessionToken(ctx)
	user, err := sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			writeError(ctx, xhttp.StatusUnauthorized, "sign in required")
			return nil, "", false
		}
		logger.Error("session lookup failed", "error", err)
		writeError(ctx, xhttp.StatusServiceUnavailable, "session store unavailable")
		return nil, "", false
	}
	return user, token, true
}
