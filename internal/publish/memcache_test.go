package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/sim"
)

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
	err   error
}

func (f *fakeCache) Set(item *memcache.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.err != nil {
		return f.err
	}
	if f.items == nil {
		f.items = make(map[string][]byte)
	}
	f.items[item.Key] = item.Value
	return nil
}

func (f *fakeCache) snapshot(t *testing.T, key string) (sim.Snapshot, int) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var s sim.Snapshot
	if data, ok := f.items[key]; ok {
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatal(err)
		}
	}
	return s, f.sets
}

func newEngine(t *testing.T) *sim.Engine {
	t.Helper()
	e, err := sim.New(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Stop)
	return e
}

func TestPublish(t *testing.T) {
	e := newEngine(t)
	cache := &fakeCache{}
	p := NewPublisher(e, cache, "", nil)

	if err := e.RunSteps(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(); err != nil {
		t.Fatal(err)
	}

	s, sets := cache.snapshot(t, DefaultKey)
	if sets != 1 || s.Steps != 7 || s.Samples != 8 {
		t.Errorf("unexpected publish: sets=%d snapshot=%+v", sets, s)
	}
}

func TestPublishError(t *testing.T) {
	e := newEngine(t)
	cache := &fakeCache{err: errors.New("connection refused")}
	p := NewPublisher(e, cache, "k", nil)

	if err := p.Publish(); err == nil {
		t.Error("expected the cache error")
	}
}

func TestPublishNonFiniteState(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Secondary.Velocity.X = 1e308
	e, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RunSteps(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	cache := &fakeCache{}
	p := NewPublisher(e, cache, "", nil)
	if err := p.Publish(); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, sets := cache.snapshot(t, DefaultKey); sets != 0 {
		t.Errorf("non-finite snapshot must not reach the cache, got %d sets", sets)
	}
}

func TestRunFollowsEngine(t *testing.T) {
	e := newEngine(t)
	cache := &fakeCache{}
	p := NewPublisher(e, cache, "orbit", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	if err := e.RunSteps(context.Background(), 12); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		s, _ := cache.snapshot(t, "orbit")
		if s.Steps == 12 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never reached step 12, last %d", s.Steps)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
