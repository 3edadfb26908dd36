package kafka

import (
	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/OliveiraNt/maned-mirror/internal/domain"
)

// Factory creates franz-go backed collaborators from the replicator configuration.
type Factory struct {
	cfg config.FileConfig
}

var _ domain.ClientFactory = (*Factory)(nil)

// NewFactory creates a new client factory.
func NewFactory(cfg config.FileConfig) *Factory {
	return &Factory{cfg: cfg}
}

// SourceCluster opens an admin handle on the source cluster.
func (f *Factory) SourceCluster() (domain.Cluster, error) {
	return NewAdmin(f.cfg.Source)
}

// DestinationCluster opens an admin handle on the destination cluster.
func (f *Factory) DestinationCluster() (domain.Cluster, error) {
	return NewAdmin(f.cfg.Destination)
}

// SourceConsumer joins the configured consumer group on the source cluster.
func (f *Factory) SourceConsumer() (domain.Consumer, error) {
	return NewConsumer(f.cfg.Source, f.cfg.GroupID)
}

// DestinationProducer opens a producer on the destination cluster.
func (f *Factory) DestinationProducer() (domain.Producer, error) {
	return NewProducer(f.cfg.Destination)
}
