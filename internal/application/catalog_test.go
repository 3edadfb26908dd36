package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliveiraNt/maned-mirror/internal/domain"
	"github.com/OliveiraNt/maned-mirror/internal/testutil"
)

func TestEligibleTopics(t *testing.T) {
	cluster := testutil.NewFakeCluster(map[string]int32{
		"orders":             3,
		"payments":           1,
		"audit":              1,
		"__consumer_offsets": 50,
		"__consumer_offse":   1,
		"_schemas":           1,
	})

	got, err := EligibleTopics(context.Background(), cluster, domain.NewSkipSet("audit"))
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "payments"}, got.Sorted())
}

func TestEligibleTopicsZeroSkipSet(t *testing.T) {
	cluster := testutil.NewFakeCluster(map[string]int32{"orders": 1, "_schemas": 1})

	got, err := EligibleTopics(context.Background(), cluster, domain.SkipSet{})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, got.Sorted())
}

func TestEligibleTopicsError(t *testing.T) {
	cluster := testutil.NewFakeCluster(nil)
	boom := errors.New("metadata unavailable")
	cluster.SetListErr(boom)

	_, err := EligibleTopics(context.Background(), cluster, domain.NewSkipSet())
	assert.ErrorIs(t, err, boom)
}
