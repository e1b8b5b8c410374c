package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"majoe-store/internal/cache"
	"majoe-store/internal/domain"
	"majoe-store/internal/middleware"
	"majoe-store/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret        = "test-secret"
	testAdminPassword = "secreto-admin"
)

type testEnv struct {
	router     chi.Router
	repo       *mockProductRepository
	redis      *redis.Client
	adminToken string
}

func passThrough(next http.Handler) http.Handler { return next }

// newTestEnv wires the handlers the way the server does, over a map-backed
// product repository and a miniredis cart store
func newTestEnv(t *testing.T, products ...*domain.Product) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := newMockProductRepository(products...)
	productService := service.NewProductService(repo)
	cartService := service.NewCartService(cache.NewRedisCartStore(client, time.Hour), repo)
	authService := service.NewAuthService(service.AdminCredentials{Username: "admin", PasswordHash: string(hash)}, testSecret, time.Hour)

	adminOnly := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(authService, logger)(middleware.RequireAdmin(logger)(next))
	}

	router := chi.NewRouter()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	NewProductHandler(productService, logger).RegisterRoutes(router, adminOnly)
	NewAdminHandler(productService, logger).RegisterRoutes(router, adminOnly, passThrough)
	NewAuthHandler(authService, logger).RegisterRoutes(router, passThrough)
	NewCartHandler(cartService, time.Hour, logger).RegisterRoutes(router)

	token, err := authService.Login(t.Context(), "admin", testAdminPassword)
	require.NoError(t, err)

	return &testEnv{
		router:     router,
		repo:       repo,
		redis:      client,
		adminToken: token.AccessToken,
	}
}

// do sends a request with an optional JSON body and extra headers
func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + e.adminToken}
}

func signRoleToken(t *testing.T, role string) string {
	t.Helper()
	claims := &service.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func validationFields(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	resp := decodeError(t, w)
	raw, ok := resp.Error.Details["validation_errors"].([]interface{})
	require.True(t, ok, "missing validation_errors in %s", w.Body.String())

	var fields []string
	for _, item := range raw {
		fields = append(fields, item.(map[string]interface{})["field"].(string))
	}
	return fields
}

func testProduct(id string, category domain.Category, stock int) *domain.Product {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:       id,
		Name:     "Camiseta " + id,
		Price:    50,
		Category: category,
		Images:   []string{"https://cdn.example.com/" + id + ".jpg"},
		Sizes: []domain.Size{
			{Name: "M", Value: "m", Available: true},
			{Name: "L", Value: "l", Available: true},
			{Name: "XL", Value: "xl", Available: false},
		},
		Colors: []domain.Color{
			{Name: "Negro", Value: "#000", Available: true},
		},
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
