package application

import (
	"context"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

// EligibleTopics lists the topics of cluster that are not in skip.
func EligibleTopics(ctx context.Context, cluster domain.Cluster, skip domain.SkipSet) (domain.TopicSet, error) {
	all, err := cluster.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	out := make(domain.TopicSet, len(all))
	for name := range all {
		if !skip.Contains(name) {
			out.Add(name)
		}
	}
	return out, nil
}
