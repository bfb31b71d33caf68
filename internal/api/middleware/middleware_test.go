package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"Townhall/internal/model"
	"Townhall/internal/pkg/consts"
	"Townhall/internal/pkg/logger"
	"Townhall/internal/pkg/response"
	"Townhall/internal/pkg/security"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubViewers map[string]*model.Viewer

func (s stubViewers) Resolve(_ context.Context, userID string) (*model.Viewer, error) {
	v, ok := s[userID]
	if !ok {
		return nil, service.UnauthorizedError
	}
	return v, nil
}

func (s stubViewers) GetUser(context.Context, string) (*model.User, error) { return nil, nil }
func (s stubViewers) Invalidate(context.Context, ...string)                {}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		v := CurrentViewer(c)
		trace, _ := c.Request.Context().Value(logger.TraceIDKey).(string)
		response.Success(c, gin.H{"viewer": v, "trace": trace, "user": c.GetString(consts.UserIDKey)})
	})
	return r
}

func code(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var b struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b.Code
}

func TestTraceMiddleware(t *testing.T) {
	r := newEngine(TraceMiddleware())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(TraceHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(TraceHeader))
	assert.Contains(t, w.Body.String(), `"trace":"abc-123"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Len(t, w.Header().Get(TraceHeader), 36)
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(CORSMiddleware([]string{"https://intranet.corp"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/who", nil)
	req.Header.Set("Origin", "https://intranet.corp")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://intranet.corp", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthMiddleware(t *testing.T) {
	security.InitJWT("mw-test", "")
	viewers := stubViewers{"alice": {ID: "alice", Department: "Eng"}}
	r := newEngine(AuthMiddleware(viewers))

	send := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, response.Unauthorized, code(t, send("")))
	assert.Equal(t, response.Unauthorized, code(t, send("Bearer garbage")))

	ghost, err := security.GenerateToken("ghost", nil)
	require.NoError(t, err)
	assert.Equal(t, response.Unauthorized, code(t, send("Bearer "+ghost)))

	tok, err := security.GenerateToken("alice", []string{"employee"})
	require.NoError(t, err)
	w := send("Bearer " + tok)
	assert.Equal(t, response.Ok, code(t, w))
	assert.Contains(t, w.Body.String(), `"user":"alice"`)
	assert.Contains(t, w.Body.String(), `"department":"Eng"`)
}

func TestRequireModerator(t *testing.T) {
	security.InitJWT("mw-test", "")
	viewers := stubViewers{
		"alice": {ID: "alice", Department: "Eng"},
		"mod":   {ID: "mod", Department: "HR", IsModerator: true},
	}
	r := newEngine(AuthMiddleware(viewers), RequireModerator())

	for user, want := range map[string]int{"alice": response.Forbidden, "mod": response.Ok} {
		tok, err := security.GenerateToken(user, nil)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, code(t, w), user)
	}
}
