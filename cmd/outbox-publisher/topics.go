package main

import (
	"context"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisherSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// topicCache hands out one Pub/Sub publisher per topic so batching and flow
// control are shared across batches.
type topicCache struct {
	source publisherSource

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

func newTopicCache(source publisherSource) *topicCache {
	return &topicCache{source: source, publishers: make(map[string]*gcppubsub.Publisher)}
}

func (c *topicCache) lookup(topic string) (topicPublisher, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pub, ok := c.publishers[topic]
	if !ok {
		pub = c.source.Publisher(topic)
		if pub == nil {
			return nil, false
		}
		c.publishers[topic] = pub
	}
	return gcpTopic{pub}, true
}

// stop flushes and stops every publisher handed out so far.
func (c *topicCache) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, topic)
	}
}

type gcpTopic struct {
	pub *gcppubsub.Publisher
}

func (t gcpTopic) Publish(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	return t.pub.Publish(ctx, msg).Get(ctx)
}
