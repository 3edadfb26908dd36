package kafka

import (
	"testing"

	"github.com/OliveiraNt/maned-mirror/internal/config"
)

func TestFactory_CreatesCollaborators(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Brokers = []string{"localhost:9092"}
	cfg.Destination.Brokers = []string{"localhost:9093"}
	f := NewFactory(cfg)

	src, err := f.SourceCluster()
	if err != nil {
		t.Fatalf("SourceCluster() error = %v", err)
	}
	defer src.Close()

	dst, err := f.DestinationCluster()
	if err != nil {
		t.Fatalf("DestinationCluster() error = %v", err)
	}
	defer dst.Close()

	consumer, err := f.SourceConsumer()
	if err != nil {
		t.Fatalf("SourceConsumer() error = %v", err)
	}
	defer consumer.Close()

	producer, err := f.DestinationProducer()
	if err != nil {
		t.Fatalf("DestinationProducer() error = %v", err)
	}
	defer producer.Close()
}
