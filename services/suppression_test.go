package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuppressionWindowExpires(t *testing.T) {
	now := time.Now()
	list := NewSuppressionList(15 * time.Second)
	list.now = func() time.Time { return now }

	list.Add("m1", "DF", "alice")

	assert.True(t, list.SuppressedPositions("m1", "alice")["DF"])

	now = now.Add(14 * time.Second)
	assert.True(t, list.SuppressedPositions("m1", "alice")["DF"], "still inside the window")

	now = now.Add(2 * time.Second)
	assert.Empty(t, list.SuppressedPositions("m1", "alice"), "window elapsed")
}

func TestSuppressionScopedToMatchAndRequester(t *testing.T) {
	list := NewSuppressionList(time.Minute)
	list.Add("m1", "DF", "alice")

	assert.Empty(t, list.SuppressedPositions("m2", "alice"), "other match unaffected")
	assert.Empty(t, list.SuppressedPositions("m1", "bob"), "other requester unaffected")
	assert.True(t, list.SuppressedPositions("m1", "alice")["DF"])
}

func TestSuppressionReAddRestartsWindow(t *testing.T) {
	now := time.Now()
	list := NewSuppressionList(10 * time.Second)
	list.now = func() time.Time { return now }

	list.Add("m1", "GK", "alice")
	now = now.Add(8 * time.Second)
	list.Add("m1", "GK", "alice")
	now = now.Add(8 * time.Second)

	assert.True(t, list.SuppressedPositions("m1", "alice")["GK"], "second Add restarted the clock")
}
