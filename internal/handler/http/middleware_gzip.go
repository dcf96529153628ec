package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Writers and readers are pooled; autosave traffic is many small JSON
// bodies in quick succession.
var (
	gzipWriters = sync.Pool{New: func() any { return gzip.NewWriter(io.Discard) }}
	gzipReaders = sync.Pool{New: func() any { return new(gzip.Reader) }}
)

// withGZip transparently decompresses gzip request bodies and compresses
// responses for clients that advertise gzip support.
func withGZip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.Contains(req.Header.Get("Content-Encoding"), "gzip") && req.Body != nil {
			reader := gzipReaders.Get().(*gzip.Reader)
			if err := reader.Reset(req.Body); err != nil {
				gzipReaders.Put(reader)
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}

			body := req.Body
			req.Body = &pooledBody{reader: reader, close: func() {
				reader.Close()
				gzipReaders.Put(reader)
				body.Close()
			}}
			req.Header.Del("Content-Encoding")
		}

		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, req)
			return
		}

		writer := gzipWriters.Get().(*gzip.Writer)
		writer.Reset(w)
		defer func() {
			writer.Close()
			gzipWriters.Put(writer)
		}()

		next.ServeHTTP(&compressedResponseWriter{ResponseWriter: w, gzip: writer}, req)
	})
}

type pooledBody struct {
	reader io.Reader
	close  func()
	closed bool
}

func (b *pooledBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *pooledBody) Close() error {
	if !b.closed {
		b.closed = true
		b.close()
	}
	return nil
}

type compressedResponseWriter struct {
	http.ResponseWriter
	gzip *gzip.Writer
}

func (w *compressedResponseWriter) WriteHeader(statusCode int) {
	w.Header().Set("Content-Encoding", "gzip")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *compressedResponseWriter) Write(data []byte) (int, error) {
	return w.gzip.Write(data)
}
