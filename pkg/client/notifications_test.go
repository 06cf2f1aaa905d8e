package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationCounter(t *testing.T) {
	var counter NotificationCounter
	assert.Equal(t, 0, counter.Value())

	counter.Increment()
	counter.Increment()
	assert.Equal(t, 2, counter.Value())

	counter.Decrement()
	assert.Equal(t, 1, counter.Value())

	counter.Reset(5)
	assert.Equal(t, 5, counter.Value())
}

func TestNotificationCounterClampsAtZero(t *testing.T) {
	var counter NotificationCounter

	counter.Decrement()
	assert.Equal(t, 0, counter.Value())

	counter.Reset(-3)
	assert.Equal(t, 0, counter.Value())

	counter.Increment()
	counter.Decrement()
	counter.Decrement()
	assert.Equal(t, 0, counter.Value())
}
