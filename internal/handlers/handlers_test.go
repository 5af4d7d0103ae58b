package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nimasrn/parcel-shipping/internal/identity"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	"github.com/nimasrn/parcel-shipping/internal/services"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) Lookup(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockSessionProvider) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) Quote(ctx context.Context, in rates.Input) (*rates.Quote, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rates.Quote), args.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Get(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeBody(t *testing.T, ctx *xhttp.RequestCtx, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), dst))
}

func TestFlexValue(t *testing.T) {
	var v struct {
		A flexValue `json:"a"`
		B flexValue `json:"b"`
		C flexValue `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2.5","b":3,"c":null}`), &v))
	assert.Equal(t, flexValue("2.5"), v.A)
	assert.Equal(t, flexValue("3"), v.B)
	assert.Equal(t, flexValue(""), v.C)
}

func TestRateHandler_Quote(t *testing.T) {
	t.Run("string and numeric inputs", func(t *testing.T) {
		svc := new(MockRateService)
		h := NewRateHandler(svc)

		q, err := rates.Calculate(rates.Input{Origin: "Nairobi", Destination: "Mombasa", Option: "express", Weight: 3, WeightUnit: "lb", PackageCount: 1, Insured: true})
		require.NoError(t, err)

		svc.On("Quote", mock.Anything, mock.MatchedBy(func(in rates.Input) bool {
			return in.Weight == 3 && in.WeightUnit == "lb" && in.PackageCount == 1 && in.Insured && in.Option == "express"
		})).Return(q, nil)

		body := []byte(`{"origin":"Nairobi","destination":"Mombasa","shipping_option":"express","package_weight":"3","weight_unit":"lb","package_count":"abc","has_insurance":true}`)
		ctx := setupTestContext("POST", "/rates/quote", body)
		h.Quote(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp map[string]any
		decodeBody(t, ctx, &resp)
		assert.InDelta(t, 1325.9401344, resp["total"].(float64), 1e-9)
		assert.Equal(t, 1325.94, resp["display"].(map[string]any)["total"])
		assert.Nil(t, resp["estimated_delivery_date"])
		svc.AssertExpectations(t)
	})

	t.Run("validation errors are listed per field", func(t *testing.T) {
		h := NewRateHandler(services.NewShipmentService(nil, nil, nil, rates.NewEngine(rates.Bounds{}), "ANT"))

		ctx := setupTestContext("POST", "/rates/quote", []byte(`{"package_weight":"heavy","shipping_option":"teleport"}`))
		h.Quote(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
		var resp validationResponse
		decodeBody(t, ctx, &resp)
		assert.Contains(t, resp.Fields, "origin")
		assert.Contains(t, resp.Fields, "destination")
		assert.Contains(t, resp.Fields, "package_weight")
		assert.Contains(t, resp.Fields, "shipping_option")
	})

	t.Run("delivery date with pickup", func(t *testing.T) {
		h := NewRateHandler(services.NewShipmentService(nil, nil, nil, rates.NewEngine(rates.Bounds{}), "ANT"))

		body := []byte(`{"origin":"A","destination":"B","shipping_option":"standard","package_weight":2,"pickup_date":"2024-01-01"}`)
		ctx := setupTestContext("POST", "/rates/quote", body)
		h.Quote(ctx)

		require.Equal(t, 200, ctx.Response.StatusCode())
		var resp map[string]any
		decodeBody(t, ctx, &resp)
		assert.Equal(t, 1044.0, resp["total"])
		assert.Equal(t, "2024-01-01", resp["pickup_date"])
		assert.Equal(t, "2024-01-04", resp["estimated_delivery_date"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockRateService)
		h := NewRateHandler(svc)

		ctx := setupTestContext("POST", "/rates/quote", []byte(`{`))
		h.Quote(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	})
}

func TestRateHandler_ListOptions(t *testing.T) {
	h := NewRateHandler(new(MockRateService))

	ctx := setupTestContext("GET", "/rates/options", nil)
	h.ListOptions(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var resp optionsResponse
	decodeBody(t, ctx, &resp)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "express", resp.Items[0].ID)
}

func TestIdentityHandler(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@example.com", FullName: "A"}

	t.Run("me with bearer token", func(t *testing.T) {
		sessions := new(MockSessionProvider)
		h := NewIdentityHandler(sessions)
		sessions.On("Lookup", mock.Anything, "tok").Return(user, nil)

		ctx := setupTestContext("GET", "/me", nil)
		ctx.Request.Header.Set("Authorization", "Bearer tok")
		h.Me(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var got model.User
		decodeBody(t, ctx, &got)
		assert.Equal(t, *user, got)
	})

	t.Run("me without session", func(t *testing.T) {
		sessions := new(MockSessionProvider)
		h := NewIdentityHandler(sessions)
		sessions.On("Lookup", mock.Anything, "").Return(nil, identity.ErrNoSession)

		ctx := setupTestContext("GET", "/me", nil)
		h.Me(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("sign out with cookie", func(t *testing.T) {
		sessions := new(MockSessionProvider)
		h := NewIdentityHandler(sessions)
		sessions.On("Lookup", mock.Anything, "cookie-tok").Return(user, nil)
		sessions.On("SignOut", mock.Anything, "cookie-tok").Return(nil)

		ctx := setupTestContext("POST", "/auth/sign-out", nil)
		ctx.Request.Header.SetCookie(identity.CookieName, "cookie-tok")
		h.SignOut(ctx)

		assert.Equal(t, 204, ctx.Response.StatusCode())
		sessions.AssertExpectations(t)
	})
}

func TestHealthHandler(t *testing.T) {
	svc := new(MockHealthService)
	h := NewHealthHandler(svc)
	svc.On("Get", mock.Anything).Return(nil).Once()

	ctx := setupTestContext("GET", "/health", nil)
	h.GetHealth(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Equal(t, "success", string(ctx.Response.Body()))

	svc.On("Get", mock.Anything).Return(assert.AnError).Once()
	ctx = setupTestContext("GET", "/health", nil)
	h.GetHealth(ctx)
	assert.Equal(t, 503, ctx.Response.StatusCode())
}
