package application

import (
	"context"
	"fmt"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

// DestinationReplicationFactor is used for every topic created on the destination cluster,
// regardless of the source topic's replication factor or the cluster default.
const DestinationReplicationFactor int16 = 3

// SubscriptionManager subscribes the source consumer to eligible topics that are not yet
// replicated and provisions them on the destination cluster.
type SubscriptionManager struct {
	skip    domain.SkipSet
	monitor *Monitor
}

// NewSubscriptionManager creates a manager that ignores topics in skip.
func NewSubscriptionManager(skip domain.SkipSet, monitor *Monitor) *SubscriptionManager {
	return &SubscriptionManager{skip: skip, monitor: monitor}
}

// Reconcile subscribes to every eligible source topic missing from st.replicated and returns
// the topics added by this call.
func (m *SubscriptionManager) Reconcile(ctx context.Context, conns *connections, st *engineState) (domain.TopicSet, error) {
	source, err := conns.sourceCluster()
	if err != nil {
		return nil, err
	}
	eligible, err := EligibleTopics(ctx, source, m.skip)
	if err != nil {
		return nil, fmt.Errorf("list source topics: %w", err)
	}

	added := make(domain.TopicSet)
	unreplicated := eligible.Difference(st.replicated)
	if len(unreplicated) == 0 {
		return added, nil
	}

	destination, err := conns.destinationCluster()
	if err != nil {
		return nil, err
	}
	consumer, err := conns.sourceConsumer()
	if err != nil {
		return nil, err
	}
	destinationTopics, err := destination.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destination topics: %w", err)
	}

	for _, topic := range unreplicated.Sorted() {
		if err := consumer.Subscribe(topic, true); err != nil {
			return added, fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		st.replicated.Add(topic)
		added.Add(topic)

		if !destinationTopics.Has(topic) {
			partitions, err := source.PartitionCount(ctx, topic)
			if err != nil {
				return added, fmt.Errorf("partition count of %s: %w", topic, err)
			}
			if err := destination.CreateTopic(ctx, topic, partitions, DestinationReplicationFactor); err != nil {
				return added, fmt.Errorf("create destination topic %s: %w", topic, err)
			}
			utils.Logger.Info("destination topic created", "topic", topic, "partitions", partitions, "replication_factor", DestinationReplicationFactor)
		}

		utils.Logger.Info("topic added", "topic", topic)
	}

	if m.monitor != nil {
		m.monitor.setTopics(st.replicated)
	}
	return added, nil
}
