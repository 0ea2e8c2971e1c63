package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressedRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)

	large := strings.Repeat(`{"field":"value"}`, 200)
	router := gin.New()
	router.Use(cm.Handler())
	router.GET("/large", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(large))
	})
	router.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/image", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", []byte(large))
	})
	router.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func get(router *gin.Engine, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCompressionLargeJSON(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	router := newCompressedRouter(cm)

	w := get(router, "/large", "gzip, deflate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(`{"field":"value"}`, 200), string(body))

	stats := cm.GetStats()
	assert.EqualValues(t, 1, stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}

func TestCompressionSkipped(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		acceptEncoding string
	}{
		{"client without gzip", "/large", ""},
		{"gzip refused", "/large", "gzip;q=0"},
		{"small body", "/small", "gzip"},
		{"binary content", "/image", "gzip"},
		{"no body", "/empty", "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := NewCompressionMiddleware(DefaultCompressionConfig())
			w := get(newCompressedRouter(cm), tt.path, tt.acceptEncoding)

			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.EqualValues(t, 0, cm.GetStats()["compressed_requests"])
		})
	}
}

func TestCompressionSmallBodyPassesThrough(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	w := get(newCompressedRouter(cm), "/small", "gzip")

	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.EqualValues(t, 1, cm.GetStats()["total_requests"])
}

func TestCompressionInvalidLevelFallsBack(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{MinSize: 10, CompressionLevel: 42, ContentTypes: []string{"application/json"}})
	assert.Equal(t, gzip.DefaultCompression, cm.config.CompressionLevel)

	w := get(newCompressedRouter(cm), "/large", "gzip")
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestClientAcceptsGzip(t *testing.T) {
	tests := map[string]bool{
		"":                  false,
		"gzip":              true,
		"deflate, gzip":     true,
		"GZIP;q=0.5":        true,
		"gzip; q=0":         false,
		"br, deflate":       false,
		"x-gzip-compressed": false,
	}
	for header, expected := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", header)
		assert.Equal(t, expected, clientAcceptsGzip(req), header)
	}
}
