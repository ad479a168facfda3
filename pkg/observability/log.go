package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level records to
// a charm logger. Errors are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger. A nil logger uses the
// charm default logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

// Register installs h as the load, cache, and HTTP hooks.
func (h *LogHooks) Register() {
	SetLoadHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnLoadStart(_ context.Context, program string, generation uint64) {
	h.logger.Debug("load started", "program", program, "generation", generation)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, program string, generation uint64, nodeCount int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Warn("load failed", "program", program, "generation", generation, "error", err)
		return
	}
	h.logger.Debug("load complete", "program", program, "generation", generation, "nodes", nodeCount, "duration", duration.Round(time.Millisecond))
}

func (h *LogHooks) OnLoadSuperseded(_ context.Context, program string, generation uint64) {
	h.logger.Debug("load superseded", "program", program, "generation", generation)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("backend request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, statusCode int, duration time.Duration) {
	h.logger.Debug("backend response", "method", method, "path", path, "status", statusCode, "duration", duration.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("backend error", "method", method, "host", host, "path", path, "error", err)
}
