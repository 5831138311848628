package csrf_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/procura-app/procura/internal/csrf"
)

func newTestRouter(guard *csrf.Guard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(guard.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddleware_SafeMethodsBypass(t *testing.T) {
	r := newTestRouter(csrf.NewGuard("procura_csrf", "X-CSRF-Token", false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMiddleware_PostWithoutToken_Forbidden(t *testing.T) {
	r := newTestRouter(csrf.NewGuard("procura_csrf", "X-CSRF-Token", false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestMiddleware_PostWithMismatch_Forbidden(t *testing.T) {
	r := newTestRouter(csrf.NewGuard("procura_csrf", "X-CSRF-Token", false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: "procura_csrf", Value: "cookie-value"})
	req.Header.Set("X-CSRF-Token", "header-value")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestMiddleware_PostWithMatchingToken_Passes(t *testing.T) {
	r := newTestRouter(csrf.NewGuard("procura_csrf", "X-CSRF-Token", false))

	tok, err := csrf.NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: "procura_csrf", Value: tok})
	req.Header.Set("X-CSRF-Token", tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNewToken_Unique(t *testing.T) {
	a, err := csrf.NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := csrf.NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Error("two tokens should never collide")
	}
	if len(a) != 43 {
		t.Errorf("token length = %d, want 43 (256 bits, unpadded base64url)", len(a))
	}
}
