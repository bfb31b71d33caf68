package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type accessRecord struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	ClientIP    string `json:"client_ip"`
}

// SetupGin access log in the same JSON shape as slog, plus recovery
func SetupGin(r *gin.Engine, index, token string) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: []string{"/health"},
		Formatter: func(p gin.LogFormatterParams) string {
			rec := accessRecord{
				Time:        p.TimeStamp.Format(time.RFC3339),
				Level:       "INFO",
				Msg:         "GIN_ACCESS",
				TraceID:     keyString(p, TraceIDKey),
				UserID:      keyString(p, UserIDKey),
				LogToken:    token,
				TargetIndex: index,
				Method:      p.Method,
				Path:        p.Path,
				Status:      p.StatusCode,
				Latency:     p.Latency.String(),
				ClientIP:    p.ClientIP,
			}
			if p.StatusCode >= 500 {
				rec.Level = "ERROR"
			}
			raw, err := json.Marshal(rec)
			if err != nil {
				return ""
			}
			return string(raw) + "\n"
		},
	}))

	r.Use(gin.Recovery())
}

// keyString gin keys first, then the request context
func keyString(p gin.LogFormatterParams, key string) string {
	if p.Keys != nil {
		if v, ok := p.Keys[key].(string); ok && v != "" {
			return v
		}
	}
	if p.Request != nil {
		if v, ok := p.Request.Context().Value(key).(string); ok {
			return v
		}
	}
	return ""
}
