package rnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerQueueEmptyUpdateIsNoop(t *testing.T) {
	var q timerQueue
	assert.True(t, q.Empty())
	got := q.Update(0, 1000, 2000)
	assert.Equal(t, int64(1000), got, "expected an empty heap to leave the baseline untouched")
}

func TestTimerQueueFiresWithinJitterBand(t *testing.T) {
	var q timerQueue
	var fired []int64
	q.Schedule(100, func(rel int64) { fired = append(fired, rel) })
	q.Schedule(101, func(rel int64) { fired = append(fired, rel) })
	q.Schedule(500, func(rel int64) { fired = append(fired, rel) })

	baseline := q.Update(0, 0, 50)

	assert.ElementsMatch(t, []int64{100, 101}, fired, "expected only the two timers within the jitter band of the head to fire")
	assert.Equal(t, int64(50), baseline, "expected the baseline to reset to now on an empty-batch update")
	assert.False(t, q.Empty(), "expected the 500ms timer to remain queued")
	assert.Equal(t, int64(500), q.HeadRelativeMS())
}

func TestTimerQueueDebitsElapsedTimeOnNonEmptyBatch(t *testing.T) {
	var q timerQueue
	q.Schedule(1000, func(int64) {})

	baseline := q.Update(3, 0, 200)

	assert.Equal(t, int64(200), baseline)
	assert.Equal(t, int64(800), q.HeadRelativeMS(), "expected a non-empty batch to debit elapsed wall-clock time from every pending timer")
}

func TestTimerQueueOrdersByRelativeTime(t *testing.T) {
	var q timerQueue
	q.Schedule(300, func(int64) {})
	q.Schedule(100, func(int64) {})
	q.Schedule(200, func(int64) {})

	assert.Equal(t, int64(100), q.HeadRelativeMS(), "expected the heap to surface the soonest-firing timer first")
}
