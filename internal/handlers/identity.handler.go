package handlers

import (
	"github.com/fasthttp/router"
	"github.com/nimasrn/parcel-shipping/internal/identity"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
)

type IdentityHandler struct {
	sessions SessionProvider
}

func RegisterIdentityRoutes(e *router.Group, h *IdentityHandler) {
	e.GET("/me", h.Me)
	e.POST("/auth/sign-out", h.SignOut)
}

func NewIdentityHandler(sessions SessionProvider) *IdentityHandler {
	return &IdentityHandler{sessions: sessions}
}

func (h *IdentityHandler) Me(ctx *xhttp.RequestCtx) {
	user, _, ok := requireUser(ctx, h.sessions)
	if !ok {
		return
	}
	writeJSON(ctx, xhttp.StatusOK, user)
}

func (h *IdentityHandler) SignOut(ctx *xhttp.RequestCtx) {
	user, token, ok := requireUser(ctx, h.sessions)
	if !ok {
		return
	}
	if err := h.sessions.SignOut(ctx, token); err != nil {
		logger.Error("sign out failed", "user_id", user.ID, "error", err)
		writeError(ctx, xhttp.StatusServiceUnavailable, "session store unavailable")
		return
	}
	ctx.Response.Header.DelClientCookie(identity.CookieName)
	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}
