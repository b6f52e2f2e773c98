package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meal_coupon/internal/domain/user/model"
	"meal_coupon/pkg/metrics"
	"meal_coupon/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})
	r.GET("/ping", handlers...)
	return r
}

func bearer(t *testing.T, userID string, role int) string {
	t.Helper()
	token, _, err := utils.GenerateToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testSecret))

	w := do(r, bearer(t, "user-1", model.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer not-a-jwt").Code)
}

func TestOperatorMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testSecret), OperatorMiddleware())

	assert.Equal(t, http.StatusForbidden, do(r, bearer(t, "user-1", model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer(t, "op-1", model.RoleOperator)).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer(t, "admin-1", model.RoleAdmin)).Code)

	// 未经过认证中间件
	bare := newRouter(OperatorMiddleware())
	assert.Equal(t, http.StatusUnauthorized, do(bare, "").Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(NewIPRateLimiter(1, 2)))

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}

func TestTraceAndLogger(t *testing.T) {
	r := newRouter(TraceMiddleware(), LoggerMiddleware(), MetricsMiddleware(metrics.NewCollector()))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-1", w.Header().Get("X-Trace-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
