package app

import (
	"context"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/chess-movetable/internal/config"
	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/movedata"
)

func TestNewWithMemoryHub(t *testing.T) {
	d, err := New(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Hub.Close()
	if _, ok := d.Hub.(*hub.Memory); !ok {
		t.Fatalf("hub = %T, want memory", d.Hub)
	}
	if d.Server == nil || d.Adapter == nil || d.Service == nil {
		t.Fatalf("incomplete deps: %+v", d)
	}
}

func TestNewWithRedisHub(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	cfg := config.Defaults()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	d, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Hub.Close()
	if _, ok := d.Hub.(*hub.Async); !ok {
		t.Fatalf("hub = %T, want async redis", d.Hub)
	}
}

func TestNewRejectsUnknownView(t *testing.T) {
	cfg := config.Defaults()
	cfg.Views = []string{"pie-chart"}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRenderStatic(t *testing.T) {
	ds, err := movedata.FromSAN([]string{"e4", "e5", "Nf3"}, []int{300, 450, 120})
	if err != nil {
		t.Fatalf("FromSAN: %v", err)
	}
	cfg := config.Defaults()
	cfg.Views = []string{"plain-table"}
	page, err := RenderStatic(cfg, ds)
	if err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	for _, want := range []string{"<title>Chess moves</title>", "white played e4", "black played e5", "4.5 seconds"} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}
