package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"json object", `{"id":1}`, `{"replica":true, "id":1}`},
		{"single byte", `x`, `x"replica":true, `},
		{"empty", ``, ` "replica":true, `},
		{"already tagged", `{"replica":true, "id":1}`, `{"replica":true, "replica":true, "id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tag([]byte(tt.value))
			assert.Equal(t, tt.want, string(got))
			assert.True(t, IsReplica(got))
		})
	}
}

func TestDoubleTaggedValueIsStillReplica(t *testing.T) {
	v := []byte(`{"id":1}`)
	twice := Tag(Tag(v))
	assert.True(t, IsReplica(twice))
	assert.Equal(t, string(ReplicaMarker)+string(ReplicaMarker), string(twice[1:1+2*len(ReplicaMarker)]))
}

func TestTagDoesNotAliasInput(t *testing.T) {
	in := make([]byte, 3, 64)
	copy(in, "{a}")
	out := Tag(in)
	out[0] = '['
	assert.Equal(t, "{a}", string(in))
}

func TestIsReplica(t *testing.T) {
	assert.False(t, IsReplica(nil))
	assert.False(t, IsReplica([]byte(`{"id":1}`)))
	assert.False(t, IsReplica([]byte(`"replica":true, `)), "marker at offset 0 does not count")
	assert.False(t, IsReplica([]byte(`{"replica":true,`)), "truncated marker")
	assert.True(t, IsReplica([]byte(`{"replica":true, }`)))
	assert.True(t, IsReplica([]byte(`["replica":true, `)), "the framing byte is not inspected")
}
