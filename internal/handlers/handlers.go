package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/nimasrn/parcel-shipping/internal/services"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
)

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// flexValue accepts a JSON number or string. Form fields arrive as text
// from browsers and as numbers from API clients.
type flexValue string

func (f *flexValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexValue(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexValue(b)
	return nil
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto status codes. Store errors
// are reported with a generic message, the detail goes to the log.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var (
		verr *services.ValidationError
		serr *services.SubmissionError
	)
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		writeJSON(ctx, xhttp.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Fields: fields})
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, "shipment not found")
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(ctx, xhttp.StatusUnauthorized, "sign in required")
	case errors.Is(err, services.ErrInvalidTransition):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.As(err, &serr):
		logger.Error("store request failed", "op", serr.Op, "error", serr.Err, "path", string(ctx.Path()))
		writeError(ctx, xhttp.StatusBadGateway, "we could not reach the shipment store, please try again")
	default:
		logger.Error("unexpected handler error", "error", err, "path", string(ctx.Path()))
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
	}
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return strings.TrimSpace(v)
}
