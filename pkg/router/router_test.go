package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `json:"name" form:"name"`
}

type echoResponse struct {
	Greeting string `json:"greeting"`
	UserID   string `json:"user_id"`
}

type userKey struct{}

func echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Empty name")
	}

	if req.Name == "busy" {
		return nil, errorx.New(errorx.Busy, "Try again")
	}

	userID, _ := ctx.Value(userKey{}).(string)
	return &echoResponse{Greeting: "hello " + req.Name, UserID: userID}, nil
}

func serve(r *Router, method, target, body string) (*httptest.ResponseRecorder, response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Handler().ServeHTTP(w, req)

	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRouter(t *testing.T) {
	r := New(context.Background())

	closed := 0
	r.AddCloser(func(ctx context.Context) { closed++ })

	GET(r, "/echo", echo)

	authorized := r.Branch()
	authorized.Before(func(ctx context.Context) (context.Context, error) {
		userID := xcontext.HTTPRequest(ctx).Header.Get("X-User")
		if userID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Need login")
		}
		return context.WithValue(ctx, userKey{}, userID), nil
	})
	POST(authorized, "/echo", echo)

	w, resp := serve(r, http.MethodGet, "/echo?name=bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(0), resp.Code)
	require.Equal(t, "hello bob", resp.Data.(map[string]any)["greeting"])

	w, resp = serve(r, http.MethodGet, "/echo", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(errorx.BadRequest), resp.Code)

	w, _ = serve(r, http.MethodGet, "/echo?name=busy", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, resp = serve(r, http.MethodPost, "/echo", `{"name":"alice"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, int64(errorx.Unauthenticated), resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"alice"}`))
	req.Header.Set("X-User", "talent1")
	w = httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"talent1"`)

	w, resp = serve(r, http.MethodPost, "/echo", `{not json`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, 6, closed)
}

func TestStatusCode(t *testing.T) {
	require.Equal(t, http.StatusNotFound, StatusCode(errorx.NotFound))
	require.Equal(t, http.StatusConflict, StatusCode(errorx.AlreadyClaimed))
	require.Equal(t, http.StatusBadRequest, StatusCode(errorx.InsufficientBalance))
	require.Equal(t, http.StatusServiceUnavailable, StatusCode(errorx.Busy))
	require.Equal(t, http.StatusInternalServerError, StatusCode(errorx.InvariantViolation))
}
