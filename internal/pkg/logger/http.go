package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

// HTTPTransport logs outbound HTTP calls (HR/ERP directory)
type HTTPTransport struct {
	Transport http.RoundTripper
	Name      string
}

func NewHTTPTransport(name string) *HTTPTransport {
	return &HTTPTransport{Transport: http.DefaultTransport, Name: name}
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	resp, err := t.Transport.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("upstream", t.Name),
		log.String("method", req.Method),
		log.String("path", req.URL.Path),
		log.Duration("latency", elapsed),
	}

	limit := 1000
	reqStr := string(reqBody)
	if len(reqStr) > limit {
		reqStr = reqStr[:limit] + "...[truncated]"
	}
	fields = append(fields, log.String("req_body", reqStr))

	if err != nil {
		log.ErrorContext(req.Context(), "HTTP_UPSTREAM_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	fields = append(fields, log.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		log.WarnContext(req.Context(), "HTTP_UPSTREAM_FAILED", fields...)
	} else if elapsed > 500*time.Millisecond {
		log.WarnContext(req.Context(), "HTTP_UPSTREAM_SLOW", fields...)
	} else {
		log.InfoContext(req.Context(), "HTTP_UPSTREAM", fields...)
	}

	return resp, nil
}
