package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// adminAPI is the subset of *kadm.Client used by Admin.
type adminAPI interface {
	ListTopicsWithInternal(ctx context.Context, topics ...string) (kadm.TopicDetails, error)
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
	BrokerMetadata(ctx context.Context) (kadm.Metadata, error)
}

// Admin implements domain.Cluster using kadm.
type Admin struct {
	client *kgo.Client
	admin  adminAPI
	name   string
}

var _ domain.Cluster = (*Admin)(nil)

// NewAdmin opens a metadata/admin handle on the cluster described by cfg.
func NewAdmin(cfg config.ClusterConfig) (*Admin, error) {
	cl, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Admin{client: cl, admin: kadm.NewClient(cl), name: cfg.Name}, nil
}

// IsHealthy checks if the cluster is reachable.
func (a *Admin) IsHealthy(ctx context.Context) bool {
	if a == nil || a.admin == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.admin.BrokerMetadata(cctx)
	return err == nil
}

// ListTopics returns every topic name, internal topics included.
func (a *Admin) ListTopics(ctx context.Context) (domain.TopicSet, error) {
	details, err := a.admin.ListTopicsWithInternal(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics on %s: %w", a.name, err)
	}
	out := make(domain.TopicSet, len(details))
	for name := range details {
		out.Add(name)
	}
	return out, nil
}

// PartitionCount returns the number of partitions of topic.
func (a *Admin) PartitionCount(ctx context.Context, topic string) (int32, error) {
	details, err := a.admin.ListTopicsWithInternal(ctx, topic)
	if err != nil {
		return 0, fmt.Errorf("describe topic %s on %s: %w", topic, a.name, err)
	}
	td, ok := details[topic]
	if !ok {
		return 0, fmt.Errorf("describe topic %s on %s: %w", topic, a.name, kerr.UnknownTopicOrPartition)
	}
	if td.Err != nil {
		return 0, fmt.Errorf("describe topic %s on %s: %w", topic, a.name, td.Err)
	}
	return int32(len(td.Partitions)), nil
}

// CreateTopic creates topic with an explicit replication factor.
func (a *Admin) CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16) error {
	resp, err := a.admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s on %s: %w", topic, a.name, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s on %s: %w", r.Topic, a.name, r.Err)
		}
	}
	return nil
}

// Close releases resources
func (a *Admin) Close() {
	if a != nil && a.client != nil {
		a.client.Close()
	}
}
