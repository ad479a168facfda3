package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLoadHooks{}
	l.OnLoadStart(ctx, "Ingeniería de Software", 1)
	l.OnLoadComplete(ctx, "Ingeniería de Software", 1, 42, time.Second, nil)
	l.OnLoadSuperseded(ctx, "Ingeniería de Software", 1)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph")
	c.OnCacheMiss(ctx, "catalog")
	c.OnCacheSet(ctx, "history", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "backend.example", "/api/grafo")
	h.OnResponse(ctx, "GET", "backend.example", "/api/grafo", 200, time.Second)
	h.OnError(ctx, "GET", "backend.example", "/api/grafo", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLoad := &testLoadHooks{}
	SetLoadHooks(customLoad)
	if Load() != customLoad {
		t.Error("SetLoadHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Reset() should restore NoopLoadHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testLoadHooks{}
	SetLoadHooks(custom)
	SetLoadHooks(nil)

	if Load() != custom {
		t.Error("SetLoadHooks(nil) should be ignored")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	NewLogHooks(logger).Register()

	ctx := context.Background()
	Load().OnLoadStart(ctx, "CS", 3)
	Load().OnLoadSuperseded(ctx, "CS", 3)
	Load().OnLoadComplete(ctx, "CS", 4, 0, time.Millisecond, errors.New("boom"))
	Cache().OnCacheMiss(ctx, "graph")
	HTTP().OnResponse(ctx, "GET", "h", "/api/carreras", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"load started", "load superseded", "load failed", "boom", "cache miss", "backend response"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testLoadHooks struct{ NoopLoadHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
