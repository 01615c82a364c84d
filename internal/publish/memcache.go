// Package publish mirrors engine snapshots into memcache so that external
// renderers can poll them.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/logging"
	"github.com/san-kum/twobody/internal/sim"
	"go.uber.org/zap"
)

const DefaultKey = "twobody:snapshot"

// Setter is the part of *memcache.Client the publisher needs.
type Setter interface {
	Set(item *memcache.Item) error
}

type Publisher struct {
	engine *sim.Engine
	client Setter
	key    string
	log    *zap.Logger
}

func NewPublisher(e *sim.Engine, client Setter, key string, log *zap.Logger) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{engine: e, client: client, key: key, log: logging.OrNop(log)}
}

// Dial connects to the given memcache servers.
func Dial(servers ...string) *memcache.Client {
	return memcache.New(servers...)
}

// Publish writes the current snapshot once. A non-finite state is not
// written and reported as dynamo.ErrInvalidState.
func (p *Publisher) Publish() error {
	s := p.engine.Snapshot()
	if !s.Valid {
		return fmt.Errorf("%w at step %d, snapshot not published", dynamo.ErrInvalidState, s.Steps)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.client.Set(&memcache.Item{Key: p.key, Value: data})
}

// Run publishes the initial snapshot and then one per engine notification
// until ctx is done. Failed writes are logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context) {
	notes, unsubscribe := p.engine.Subscribe()
	defer unsubscribe()

	p.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notes:
			p.publish()
		}
	}
}

func (p *Publisher) publish() {
	if err := p.Publish(); err != nil {
		p.log.Warn("memcache publish failed", zap.String("key", p.key), zap.Error(err))
	}
}
