package guard

import "net/http"

// statusWriter is an http.ResponseWriter that remembers whether the
// response has started. The guard uses it to avoid layering an error
// response on top of output the protected handler already produced, and
// to log the final status.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Written reports whether any part of the response reached the wire.
func (w *statusWriter) Written() bool {
	return w.written
}

// Status returns the response status, zero until written.
func (w *statusWriter) Status() int {
	return w.status
}
