package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/auth"
	"github.com/mediconnect/clinical-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestJWT() auth.JWTService {
	return auth.NewJWTService("test-secret", "mediconnect", time.Hour)
}

func tokenFor(t *testing.T, svc auth.JWTService, role model.Role) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(auth.Principal{
		UserID:         uuid.New(),
		OrganizationID: uuid.New(),
		EmployeeID:     "EMP001",
		Role:           string(role),
	})
	require.NoError(t, err)
	return token
}

func authRouter(m *AuthMiddleware, roles ...model.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{m.Authenticate()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, p.Role)
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := newTestJWT()
	other := auth.NewJWTService("other-secret", "mediconnect", time.Hour)

	tests := []struct {
		name     string
		required bool
		header   string
		want     int
		body     string
	}{
		{"missing header required", true, "", http.StatusUnauthorized, ""},
		{"missing header optional", false, "", http.StatusOK, "anonymous"},
		{"bad scheme", false, "Basic abc", http.StatusUnauthorized, ""},
		{"foreign signature", true, "Bearer " + tokenFor(t, other, model.RoleNurse), http.StatusUnauthorized, ""},
		{"valid token", true, "Bearer " + tokenFor(t, jwtSvc, model.RoleNurse), http.StatusOK, "nurse"},
		{"lowercase scheme", true, "bearer " + tokenFor(t, jwtSvc, model.RoleDoctor), http.StatusOK, "doctor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(NewAuthMiddleware(jwtSvc, tt.required))
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}

			w := perform(r, http.MethodGet, "/protected", "", headers)

			assert.Equal(t, tt.want, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtSvc := newTestJWT()
	m := NewAuthMiddleware(jwtSvc, true)
	r := authRouter(m, model.RoleAdmin, model.RoleSuperAdmin)

	w := perform(r, http.MethodGet, "/protected", "", map[string]string{
		"Authorization": "Bearer " + tokenFor(t, jwtSvc, model.RoleNurse),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/protected", "", map[string]string{
		"Authorization": "Bearer " + tokenFor(t, jwtSvc, model.RoleSuperAdmin),
	})
	assert.Equal(t, http.StatusOK, w.Code)

	optional := authRouter(NewAuthMiddleware(jwtSvc, false), model.RoleAdmin)
	w = perform(optional, http.MethodGet, "/protected", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 2, TTL: time.Minute})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: 10 * time.Millisecond}))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusGatewayTimeout, perform(r, http.MethodGet, "/slow", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/fast", "", nil).Code)
}

func TestRecoveryReturns500(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, w.Header().Get(HeaderXRequestID))
}

func TestRecoveryKeepsPartialResponse(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/partial", func(c *gin.Context) {
		c.String(http.StatusOK, "vitals:")
		panic("boom")
	})

	w := perform(r, http.MethodGet, "/partial", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vitals:", w.Body.String())
}

func TestRecoveryRepanicsOnAbortHandler(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/abort", func(c *gin.Context) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		perform(r, http.MethodGet, "/abort", "", nil)
	})
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := perform(r, http.MethodGet, "/", "", map[string]string{HeaderXRequestID: "abc-123"})
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	w = perform(r, http.MethodGet, "/", "", nil)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	for _, rid := range []string{"bad id\r\nX-Injected: 1", "<script>", strings.Repeat("a", 129)} {
		w := perform(r, http.MethodGet, "/", "", map[string]string{HeaderXRequestID: rid})
		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err, rid)
	}
}

func TestRequestIDReachesRequestContext(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		assert.Equal(t, "ward-7.req:42", RequestIDFrom(ctx))
		assert.NotNil(t, zerolog.Ctx(ctx))
		c.Status(http.StatusNoContent)
	})

	w := perform(r, http.MethodGet, "/", "", map[string]string{HeaderXRequestID: "ward-7.req:42"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestErrorHandlerRendersUnwrittenErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://ward.example"}
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/", "", map[string]string{"Origin": "https://ward.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ward.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = perform(r, http.MethodGet, "/", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 16}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/", `{"a":1}`, nil).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, perform(r, http.MethodPost, "/", strings.Repeat("x", 64), nil).Code)
}

func TestAPIVersionHeader(t *testing.T) {
	r := gin.New()
	r.Use(APIVersion("1.0"), SecurityHeaders(DefaultSecurityConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, "1.0", w.Header().Get(HeaderAPIVersion))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCustomValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/actions", func(c *gin.Context) {
		var req model.TransitionActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodPost, "/actions", `{"status":"archived"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "status", resp.Field)

	w = perform(r, http.MethodPost, "/actions", `{"status":"in_progress"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
