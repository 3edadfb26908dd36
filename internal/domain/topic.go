package domain

import "sort"

// ReservedTopics are internal bookkeeping topics that are never replicated.
var ReservedTopics = []string{"__consumer_offse", "__consumer_offsets", "_schemas"}

// TopicSet is an unordered set of topic names.
type TopicSet map[string]struct{}

// NewTopicSet builds a set from names.
func NewTopicSet(names ...string) TopicSet {
	s := make(TopicSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s TopicSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s TopicSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Difference returns the names in s that are not in other.
func (s TopicSet) Difference(other TopicSet) TopicSet {
	out := make(TopicSet)
	for n := range s {
		if !other.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Sorted returns the names in lexical order.
func (s TopicSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SkipSet holds topic names excluded from replication. It always contains ReservedTopics.
type SkipSet struct {
	names TopicSet
}

// NewSkipSet returns the union of ReservedTopics and extra.
func NewSkipSet(extra ...string) SkipSet {
	names := NewTopicSet(ReservedTopics...)
	for _, n := range extra {
		names.Add(n)
	}
	return SkipSet{names: names}
}

// Contains reports whether topic must not be replicated.
func (s SkipSet) Contains(topic string) bool {
	if s.names == nil {
		for _, r := range ReservedTopics {
			if r == topic {
				return true
			}
		}
		return false
	}
	return s.names.Has(topic)
}

// Names returns the skipped names in lexical order.
func (s SkipSet) Names() []string {
	if s.names == nil {
		return NewSkipSet().Names()
	}
	return s.names.Sorted()
}
