package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
			"text/css",
			"application/javascript",
			"text/javascript",
		},
	}
}

// CompressionMiddleware gzips responses for clients that accept it
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if _, err := gzip.NewWriterLevel(io.Discard, config.CompressionLevel); err != nil {
		config.CompressionLevel = gzip.DefaultCompression
	}

	cm := &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
	}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, cm.config.CompressionLevel)
		return gz
	}
	return cm
}

// Handler returns the gin middleware. Responses are buffered until
// MinSize bytes are written so small bodies go out uncompressed.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !clientAcceptsGzip(c.Request) {
			c.Next()
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: c.Writer, cm: cm}
		c.Writer = gzw
		defer func() {
			gzw.finish()
			c.Writer = gzw.ResponseWriter
		}()

		c.Next()
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

func clientAcceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(strings.TrimSpace(name), "gzip") {
			return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
		}
	}
	return false
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// gzipResponseWriter defers the compress decision until it has seen
// MinSize bytes or the handler finishes
type gzipResponseWriter struct {
	gin.ResponseWriter
	cm *CompressionMiddleware

	buf      bytes.Buffer
	decided  bool
	gz       *gzip.Writer
	counter  *countingWriter
	original int64
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	w.original += int64(len(data))

	if !w.decided {
		w.buf.Write(data)
		if w.buf.Len() < w.cm.config.MinSize {
			return len(data), nil
		}
		if err := w.decide(); err != nil {
			return 0, err
		}
		return len(data), nil
	}

	if w.gz != nil {
		return w.gz.Write(data)
	}
	return w.ResponseWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// decide picks gzip or identity encoding and flushes the buffer
func (w *gzipResponseWriter) decide() error {
	w.decided = true

	header := w.Header()
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(w.buf.Bytes())
	}

	if w.buf.Len() >= w.cm.config.MinSize && header.Get("Content-Encoding") == "" && w.cm.shouldCompress(contentType) {
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")

		w.counter = &countingWriter{w: w.ResponseWriter}
		w.gz = w.cm.pool.Get().(*gzip.Writer)
		w.gz.Reset(w.counter)
	}

	data := w.buf.Bytes()
	w.buf = bytes.Buffer{}
	if len(data) == 0 {
		return nil
	}
	var err error
	if w.gz != nil {
		_, err = w.gz.Write(data)
	} else {
		_, err = w.ResponseWriter.Write(data)
	}
	return err
}

func (w *gzipResponseWriter) Flush() {
	if !w.decided {
		_ = w.decide()
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *gzipResponseWriter) finish() {
	if !w.decided {
		_ = w.decide()
	}
	if w.gz == nil {
		w.cm.stats.RecordRequest(w.original, w.original, false)
		return
	}

	_ = w.gz.Close()
	w.gz.Reset(io.Discard)
	w.cm.pool.Put(w.gz)
	w.cm.stats.RecordRequest(w.original, w.counter.n, true)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedInput    int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedInput += originalSize
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.CompressedInput > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.CompressedInput)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}
