package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/collabhub-backend/internal/pkg/ctxutil"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

type stubAuth struct {
	userID uuid.UUID
	token  string
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString != s.token {
		return ctx, fmt.Errorf("%w: bad signature", apperr.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: s.userID}), nil
}

func authRouter(t *testing.T, auth *stubAuth) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	r := gin.New()
	r.Use(NewAuthMiddleware(log, auth).RequireAuth())
	r.GET("/api/me", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})
	return r
}

func TestRequireAuthAcceptsHeaderAndQueryToken(t *testing.T) {
	auth := &stubAuth{userID: uuid.New(), token: "good"}
	r := authRouter(t, auth)

	for name, req := range map[string]*http.Request{
		"header": func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.Header.Set("Authorization", "Bearer good")
			return req
		}(),
		"query": httptest.NewRequest(http.MethodGet, "/api/me?token=good", nil),
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status=%d body=%s", name, rec.Code, rec.Body.String())
		}
		if rec.Body.String() != auth.userID.String() {
			t.Fatalf("%s: user id not attached: %q", name, rec.Body.String())
		}
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r := authRouter(t, &stubAuth{userID: uuid.New(), token: "good"})

	cases := map[string]string{
		"missing": "",
		"bad":     "Bearer nope",
		"scheme":  "Basic good",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status=%d", name, rec.Code)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if body.Error.Code != "unauthorized" {
			t.Fatalf("%s: code=%q", name, body.Error.Code)
		}
	}
}
