package application

import "bytes"

// ReplicaMarker flags a payload that has already been mirrored once. It is embedded at byte
// offset 1 so a single leading framing byte (a JSON object's '{') stays first. Engines mirroring
// into each other must agree on this exact layout.
var ReplicaMarker = []byte(`"replica":true, `)

// IsReplica reports whether value carries ReplicaMarker at offset 1.
func IsReplica(value []byte) bool {
	if len(value) < 1+len(ReplicaMarker) {
		return false
	}
	return bytes.Equal(value[1:1+len(ReplicaMarker)], ReplicaMarker)
}

// Tag returns a copy of value with ReplicaMarker inserted after its first byte.
// An empty value has no framing byte, so a single space is used in its place.
func Tag(value []byte) []byte {
	out := make([]byte, 0, len(value)+len(ReplicaMarker)+1)
	if len(value) == 0 {
		out = append(out, ' ')
		return append(out, ReplicaMarker...)
	}
	out = append(out, value[0])
	out = append(out, ReplicaMarker...)
	return append(out, value[1:]...)
}
