package application

import (
	"fmt"
	"sync"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

// connections owns the broker handles of an engine. Each handle is opened on first use and
// reused until release. A stopped pool stops every consumer it hands out.
type connections struct {
	factory domain.ClientFactory

	mu          sync.Mutex
	stopped     bool
	source      domain.Cluster
	destination domain.Cluster
	consumer    domain.Consumer
	producer    domain.Producer
}

func newConnections(factory domain.ClientFactory) *connections {
	return &connections{factory: factory}
}

func (c *connections) sourceCluster() (domain.Cluster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil {
		cl, err := c.factory.SourceCluster()
		if err != nil {
			return nil, fmt.Errorf("connect to source cluster: %w", err)
		}
		c.source = cl
	}
	return c.source, nil
}

func (c *connections) destinationCluster() (domain.Cluster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destination == nil {
		cl, err := c.factory.DestinationCluster()
		if err != nil {
			return nil, fmt.Errorf("connect to destination cluster: %w", err)
		}
		c.destination = cl
	}
	return c.destination, nil
}

func (c *connections) sourceConsumer() (domain.Consumer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consumer == nil {
		cons, err := c.factory.SourceConsumer()
		if err != nil {
			return nil, fmt.Errorf("create source consumer: %w", err)
		}
		if c.stopped {
			cons.Stop()
		}
		c.consumer = cons
	}
	return c.consumer, nil
}

func (c *connections) destinationProducer() (domain.Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.producer == nil {
		p, err := c.factory.DestinationProducer()
		if err != nil {
			return nil, fmt.Errorf("create destination producer: %w", err)
		}
		c.producer = p
	}
	return c.producer, nil
}

// stop halts the current consumer and any consumer created afterwards.
func (c *connections) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.consumer != nil {
		c.consumer.Stop()
	}
}

// release closes every open handle; the next acquire reconnects.
func (c *connections) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.consumer != nil {
		c.consumer.Close()
		c.consumer = nil
	}
	if c.producer != nil {
		c.producer.Close()
		c.producer = nil
	}
	if c.source != nil {
		c.source.Close()
		c.source = nil
	}
	if c.destination != nil {
		c.destination.Close()
		c.destination = nil
	}
}
