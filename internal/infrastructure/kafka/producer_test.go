package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducerAPI struct {
	produced [][]*kgo.Record
	err      error
}

func (f *fakeProducerAPI) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.produced = append(f.produced, rs)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func (f *fakeProducerAPI) Close() {}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(config.ClusterConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	p.Close()
}

func TestProducer_FlushPreservesPartitions(t *testing.T) {
	fake := &fakeProducerAPI{}
	p := newProducer(fake)

	require.NoError(t, p.Flush(context.Background()))
	require.Empty(t, fake.produced)

	p.Enqueue([]byte("k1"), []byte("v1"), "orders", 2)
	p.Enqueue(nil, []byte("v2"), "orders", 0)
	require.Equal(t, 2, p.Buffered())

	require.NoError(t, p.Flush(context.Background()))
	require.Equal(t, 0, p.Buffered())
	require.Len(t, fake.produced, 1)

	recs := fake.produced[0]
	require.Equal(t, int32(2), recs[0].Partition)
	require.Equal(t, []byte("k1"), recs[0].Key)
	require.Equal(t, int32(0), recs[1].Partition)
	require.Equal(t, "orders", recs[1].Topic)
}

func TestProducer_FlushError(t *testing.T) {
	fake := &fakeProducerAPI{err: errors.New("not enough replicas")}
	p := newProducer(fake)
	p.Enqueue(nil, []byte("v"), "orders", 0)

	require.ErrorIs(t, p.Flush(context.Background()), fake.err)
	require.Equal(t, 0, p.Buffered())
}
