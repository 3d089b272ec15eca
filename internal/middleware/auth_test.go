package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/qr-dashboard/qr-dashboard/internal/auth"
	"github.com/qr-dashboard/qr-dashboard/internal/db/repositories"
)

var userCols = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	userRepo := repositories.NewUserRepository(db)

	r := gin.New()
	r.Use(AuthMiddleware(userRepo))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r, mock
}

func validToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Header validation
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r, _ := newAuthRouter(t)
	w := doRequest(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_NonBearerHeader(t *testing.T) {
	r, _ := newAuthRouter(t)
	w := doRequest(r, "Basic dXNlcjpwYXNz")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_EmptyBearerToken(t *testing.T) {
	r, _ := newAuthRouter(t)
	w := doRequest(r, "Bearer   ")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Token validation
// ---------------------------------------------------------------------------

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	r, _ := newAuthRouter(t)
	w := doRequest(r, "Bearer not.a.token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	r, _ := newAuthRouter(t)
	token, err := auth.GenerateJWT("user-1", "alice@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	w := doRequest(r, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// User lookup
// ---------------------------------------------------------------------------

func TestAuthMiddleware_ValidTokenAndUser(t *testing.T) {
	r, mock := newAuthRouter(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("user-1", "alice@example.com", "Alice", "$2a$12$hash", time.Now(), time.Now()))

	w := doRequest(r, "Bearer "+validToken(t, "user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
}

func TestAuthMiddleware_ValidTokenDeletedUser(t *testing.T) {
	r, mock := newAuthRouter(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-gone").
		WillReturnRows(sqlmock.NewRows(userCols))

	w := doRequest(r, "Bearer "+validToken(t, "user-gone"))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deleted user", w.Code)
	}
}

func TestAuthMiddleware_UserLookupError(t *testing.T) {
	r, mock := newAuthRouter(t)
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WillReturnError(sqlmock.ErrCancelled)

	w := doRequest(r, "Bearer "+validToken(t, "user-1"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for DB failure", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GetUserID
// ---------------------------------------------------------------------------

func TestGetUserID_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if got := GetUserID(c); got != "" {
		t.Errorf("GetUserID() = %q, want empty for unauthenticated context", got)
	}
}

func TestGetUserID_Set(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", "user-42")
	if got := GetUserID(c); got != "user-42" {
		t.Errorf("GetUserID() = %q, want user-42", got)
	}
}
