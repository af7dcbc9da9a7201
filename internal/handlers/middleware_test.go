package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"powersense/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": currentUser(c)})
	})
	return r
}

func TestUserIDMiddleware_Errors(t *testing.T) {
	const (
		msgMissing = "missing or malformed bearer token"
		msgInvalid = "invalid or expired token"
	)
	cases := []struct {
		name     string
		header   string
		parseErr error
		wantMsg  string
	}{
		{name: "missing header", wantMsg: msgMissing},
		{name: "invalid scheme", header: "Token abc", wantMsg: msgMissing},
		{name: "bearer without token", header: "Bearer", wantMsg: msgMissing},
		{name: "expired token", header: "Bearer expired", parseErr: errors.New("expired"), wantMsg: msgInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service.Service{Authorization: &mockAuth{parseErr: tc.parseErr}}
			r := newMiddlewareOnlyRouter(s)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
			}
			var out struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Error != tc.wantMsg {
				t.Fatalf("error message: got %q, want %q", out.Error, tc.wantMsg)
			}
		})
	}
}

func TestUserIDMiddleware_SuccessSetsUserIDAndProceeds(t *testing.T) {
	for _, tc := range []struct {
		name, target, header string
	}{
		{"header", "/secure", "Bearer good-token"},
		{"query token", "/secure?token=good-token", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{parseID: 123}
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d; body=%s", w.Code, w.Body.String())
			}
			var resp struct {
				OK     bool `json:"ok"`
				UserID int  `json:"userId"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !resp.OK || resp.UserID != 123 {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if auth.lastParseToken != "good-token" {
				t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, "good-token")
			}
		})
	}
}
