package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func corsEngine(config CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(config))
	r.GET("/api/stats", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/api/react", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.OPTIONS("/api/react", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

func serve(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_PreflightWithoutRoute(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"https://app.example.com"}

	w := serve(corsEngine(config), http.MethodOptions, "/api/stats", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": "GET",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_PreflightWithRouteReachesHandler(t *testing.T) {
	w := serve(corsEngine(DefaultCORSConfig()), http.MethodOptions, "/api/react", map[string]string{
		"Origin": "http://localhost:8080",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		wild    bool
		origin  string
		want    string
	}{
		{"exact match", []string{"https://app.example.com"}, false, "https://app.example.com", "https://app.example.com"},
		{"case insensitive", []string{"https://App.Example.com"}, false, "https://app.example.com", "https://app.example.com"},
		{"disallowed", []string{"https://app.example.com"}, false, "https://evil.example.org", ""},
		{"wildcard", []string{"*"}, false, "https://anything.test", "*"},
		{"subdomain", []string{"*.example.com"}, true, "https://api.example.com", "https://api.example.com"},
		{"subdomain disabled", []string{"*.example.com"}, false, "https://api.example.com", ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultCORSConfig()
			config.AllowedOrigins = tc.allowed
			config.AllowWildcard = tc.wild
			w := serve(corsEngine(config), http.MethodGet, "/api/stats", map[string]string{"Origin": tc.origin})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	w := serve(corsEngine(DefaultCORSConfig()), http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardWithCredentials(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowCredentials = true
	w := serve(corsEngine(config), http.MethodGet, "/api/stats", map[string]string{"Origin": "https://a.test"})
	assert.Equal(t, "https://a.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_ExposedHeaders(t *testing.T) {
	w := serve(corsEngine(DefaultCORSConfig()), http.MethodPost, "/api/react", map[string]string{"Origin": "https://a.test"})
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"), "only on preflight")
}

func TestDefaultCORSConfig(t *testing.T) {
	config := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, config.AllowedOrigins)
	assert.Contains(t, config.AllowedMethods, http.MethodPost)
	assert.Contains(t, config.AllowedMethods, http.MethodOptions)
	assert.Contains(t, config.AllowedHeaders, "Content-Type")
	assert.False(t, config.AllowCredentials)
}

//Personal.AI order the ending
