package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsensusNoVotesIsNeutral(t *testing.T) {
	// No signal yet reads as 0.5, not "fully against".
	assert.Equal(t, 0.5, Consensus(0, 0))
}

func TestConsensusBounds(t *testing.T) {
	cases := []struct {
		support, counter int
	}{
		{0, 0}, {1, 0}, {0, 1}, {3, 7}, {100, 1}, {1, 100}, {50, 50},
	}
	for _, tc := range cases {
		ratio := Consensus(tc.support, tc.counter)
		assert.GreaterOrEqual(t, ratio, 0.0, "consensus(%d,%d)", tc.support, tc.counter)
		assert.LessOrEqual(t, ratio, 1.0, "consensus(%d,%d)", tc.support, tc.counter)
	}
}

func TestConsensusExtremes(t *testing.T) {
	assert.Equal(t, 1.0, Consensus(5, 0))
	assert.Equal(t, 0.0, Consensus(0, 5))
	assert.Equal(t, 0.5, Consensus(4, 4))
}

func TestConsensusMonotonicInSupport(t *testing.T) {
	for _, counter := range []int{1, 5, 20} {
		prev := Consensus(0, counter)
		for support := 1; support <= 10; support++ {
			cur := Consensus(support, counter)
			assert.Greater(t, cur, prev, "support=%d counter=%d", support, counter)
			prev = cur
		}
	}
}

func TestTopicConsensusRecomputed(t *testing.T) {
	topic := &Topic{SupportCount: 3, CounterCount: 1}
	assert.Equal(t, 0.75, topic.Consensus())

	topic.CounterCount = 3
	assert.Equal(t, 0.5, topic.Consensus())
}
