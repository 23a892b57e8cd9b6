package modelconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "https://api.example.com"

func TestNormalizerURL(t *testing.T) {
	n := Normalizer{Origin: origin}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absolute https", "https://cdn/x.glb", "https://cdn/x.glb"},
		{"absolute http", "http://cdn/x.glb", "http://cdn/x.glb"},
		{"rooted models", "/models/x.glb", origin + "/models/x.glb"},
		{"relative models", "models/x.glb", origin + "/models/x.glb"},
		{"other relative", "x.glb", "x.glb"},
		{"other rooted", "/static/x.glb", "/static/x.glb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.URL(tt.in))
		})
	}
}

func TestNormalizerTrailingSlashOrigin(t *testing.T) {
	n := Normalizer{Origin: origin + "/"}
	assert.Equal(t, origin+"/models/x.glb", n.URL("/models/x.glb"))
}

func TestNormalizeDocument(t *testing.T) {
	n := Normalizer{Origin: origin}
	doc := Document{
		"path": "/models/chair.glb",
		"assets": map[string]any{
			"base":   "models/chair-base.glb",
			"legs":   "https://cdn/legs.glb",
			"weight": float64(3),
		},
		"camera": map[string]any{"fov": float64(40)},
	}

	out := n.Normalize(doc)

	assert.Equal(t, origin+"/models/chair.glb", out["path"])
	assets := out.Map("assets")
	assert.Equal(t, origin+"/models/chair-base.glb", assets["base"])
	assert.Equal(t, "https://cdn/legs.glb", assets["legs"])
	assert.InDelta(t, 3, assets["weight"], 0)

	// input untouched
	assert.Equal(t, "/models/chair.glb", doc["path"])
	assert.Equal(t, "models/chair-base.glb", doc.Map("assets")["base"])

	again := n.Normalize(out)
	assert.Equal(t, out, again)
}

func TestUnwrap(t *testing.T) {
	inner := map[string]any{"camera": map[string]any{"fov": float64(50)}}

	tests := []struct {
		name   string
		doc    Document
		want   Document
		source Source
	}{
		{
			name:   "direct",
			doc:    Document{"uiWidgets": []any{}, "chair": inner},
			want:   Document{"uiWidgets": []any{}, "chair": inner},
			source: SourceDirect,
		},
		{
			name:   "exact name",
			doc:    Document{"Chair": inner},
			want:   inner,
			source: SourceNameKey,
		},
		{
			name:   "name case-insensitive",
			doc:    Document{"CHAIR": inner},
			want:   inner,
			source: SourceNameInsensitive,
		},
		{
			name:   "config key",
			doc:    Document{"config": inner, "data": map[string]any{"x": true}},
			want:   inner,
			source: SourceConfigKey,
		},
		{
			name:   "data key",
			doc:    Document{"data": inner},
			want:   inner,
			source: SourceDataKey,
		},
		{
			name:   "models map",
			doc:    Document{"models": map[string]any{"Chair": inner}},
			want:   inner,
			source: SourceModelsKey,
		},
		{
			name:   "nothing matches",
			doc:    Document{"version": float64(2)},
			want:   Document{"version": float64(2)},
			source: SourceUnchanged,
		},
		{
			name:   "falsy marker is not direct",
			doc:    Document{"path": "", "config": inner},
			want:   inner,
			source: SourceConfigKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := Unwrap("Chair", tt.doc)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge(t *testing.T) {
	n := Normalizer{Origin: origin}

	t.Run("path fallback", func(t *testing.T) {
		got := n.Merge("chair", Document{"path": "base.glb"}, Document{"camera": map[string]any{"fov": float64(40)}})

		assert.Equal(t, "base.glb", got["path"])
		assert.InDelta(t, 40, got.Map("camera")["fov"], 0)
	})

	t.Run("no external", func(t *testing.T) {
		got := n.Merge("chair", Document{"path": "/models/a.glb", "section": "Kitchen"}, nil)

		assert.Equal(t, Document{"path": origin + "/models/a.glb", "section": "Kitchen"}, got)
	})

	t.Run("external path wins", func(t *testing.T) {
		got := n.Merge("chair",
			Document{"path": "base.glb"},
			Document{"path": "models/ext.glb"},
		)

		assert.Equal(t, origin+"/models/ext.glb", got["path"])
	})

	t.Run("assets base suppresses fallback", func(t *testing.T) {
		got := n.Merge("chair",
			Document{"path": "base.glb"},
			Document{"assets": map[string]any{"base": "https://cdn/b.glb"}},
		)

		assert.NotContains(t, got, "path")
	})

	t.Run("base path is normalized", func(t *testing.T) {
		got := n.Merge("chair",
			Document{"path": "/models/base.glb"},
			Document{"camera": map[string]any{}},
		)

		assert.Equal(t, origin+"/models/base.glb", got["path"])
	})

	t.Run("external replaces base fields", func(t *testing.T) {
		got := n.Merge("chair",
			Document{"path": "a.glb", "lights": []any{"l1"}, "section": "Bath"},
			Document{"chair": map[string]any{"camera": map[string]any{}}},
		)

		assert.NotContains(t, got, "lights")
		assert.Equal(t, "Bath", got["section"])
		assert.Equal(t, "a.glb", got["path"])
	})

	t.Run("external section wins", func(t *testing.T) {
		got := n.Merge("chair",
			Document{"section": "Bath"},
			Document{"camera": map[string]any{}, "section": "Kitchen"},
		)

		assert.Equal(t, "Kitchen", got["section"])
	})
}

func TestFetcher(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		switch r.URL.Path {
		case "/configs/chair.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Chair":{"camera":{"fov":35}}}`))
		case "/configs/broken.json":
			_, _ = w.Write([]byte(`[1,2,3]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Origin: srv.URL, Timeout: time.Second, CacheTTL: time.Minute})

	doc, err := f.Fetch(context.Background(), "/configs/chair.json")
	require.NoError(t, err)
	assert.Contains(t, doc, "Chair")

	// second call is served from the cache
	_, err = f.Fetch(context.Background(), "configs/chair.json")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// cached documents are not shared with callers
	doc["Chair"] = "changed"
	again, err := f.Fetch(context.Background(), srv.URL+"/configs/chair.json")
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, again["Chair"])

	f.Invalidate("/configs/chair.json")
	_, err = f.Fetch(context.Background(), "/configs/chair.json")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, err = f.Fetch(context.Background(), "/configs/missing.json")
	require.ErrorIs(t, err, ErrFetchStatus)

	_, err = f.Fetch(context.Background(), "/configs/broken.json")
	require.ErrorIs(t, err, ErrInvalidDocument)

	_, err = f.Fetch(context.Background(), "")
	require.ErrorIs(t, err, ErrNoConfigURL)
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(FetcherConfig{Origin: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := f.Fetch(context.Background(), "/slow.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolverFallsBackToBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(FetcherConfig{Origin: srv.URL})
	base := Document{"path": "/models/a.glb"}

	got := r.Resolve(context.Background(), "a", base, "/broken.json")
	assert.Equal(t, srv.URL+"/models/a.glb", got["path"])

	got = r.Resolve(context.Background(), "a", base, "")
	assert.Equal(t, srv.URL+"/models/a.glb", got["path"])
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "spaces and capitals",
			in:   "Oak  Door",
			want: []string{
				"/configs/Oak%20%20Door.json",
				"/configs/Oak-Door.json",
				"/configs/oak%20%20door.json",
				"/configs/config-Oak%20%20Door.json",
			},
		},
		{
			name: "plain name skips repeats",
			in:   " chair ",
			want: []string{"/configs/chair.json", "/configs/config-chair.json"},
		},
		{
			name: "blank",
			in:   "  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates("/configs", tt.in))
		})
	}
}

func TestResolverLooksUpByName(t *testing.T) {
	var (
		mu        sync.Mutex
		requested []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()

		if r.URL.Path != "/configs/oak door.json" {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(`{"Oak Door":{"uiWidgets":[{"type":"texture"}]}}`))
	}))
	defer srv.Close()

	r := NewResolver(FetcherConfig{Origin: srv.URL, LookupDir: "/configs/"})

	got := r.Resolve(context.Background(), "Oak Door", Document{"path": "models/oak.glb"}, "")
	assert.Len(t, got.Slice("uiWidgets"), 1)
	assert.Equal(t, srv.URL+"/models/oak.glb", got["path"])

	mu.Lock()
	assert.Equal(t, []string{"/configs/Oak Door.json", "/configs/Oak-Door.json", "/configs/oak door.json"}, requested)
	requested = nil
	mu.Unlock()

	got = r.Resolve(context.Background(), "lamp", Document{"path": "models/lamp.glb"}, "")
	assert.Empty(t, got.Slice("uiWidgets"))
	assert.Equal(t, srv.URL+"/models/lamp.glb", got["path"])

	mu.Lock()
	assert.Equal(t, []string{"/configs/lamp.json", "/configs/config-lamp.json"}, requested)
	mu.Unlock()
}

func TestResolverMergesExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"uiWidgets":[{"type":"texture"}]}}`))
	}))
	defer srv.Close()

	r := NewResolver(FetcherConfig{Origin: srv.URL})

	got := r.Resolve(context.Background(), "a", Document{"path": "models/a.glb", "section": "Hall"}, "cfg.json")

	assert.Len(t, got.Slice("uiWidgets"), 1)
	assert.Equal(t, srv.URL+"/models/a.glb", got["path"])
	assert.Equal(t, "Hall", got["section"])
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`{"a":{"b":[1,{"c":true}]}}`))
	require.NoError(t, err)

	clone := doc.Clone()
	clone.Map("a")["b"].([]any)[1].(map[string]any)["c"] = false

	assert.Equal(t, true, doc.Map("a")["b"].([]any)[1].(map[string]any)["c"])

	_, err = Parse([]byte(`"string"`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
