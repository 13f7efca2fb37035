package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus(testLogger())

	var got []string
	bus.SubscribeMatchFinished(func(e MatchFinished) { got = append(got, "a:"+e.SessionID) })
	bus.SubscribeMatchFinished(func(e MatchFinished) { got = append(got, "b:"+e.SessionID) })

	bus.PublishMatchFinished(MatchFinished{SessionID: "s1"})
	assert.Equal(t, []string{"a:s1", "b:s1"}, got)
}

func TestEventBusIsolatesPanickingSubscriber(t *testing.T) {
	bus := NewEventBus(testLogger())

	var delivered bool
	bus.SubscribeMatchFinished(func(MatchFinished) { panic("boom") })
	bus.SubscribeMatchFinished(func(MatchFinished) { delivered = true })

	assert.NotPanics(t, func() {
		bus.PublishMatchFinished(MatchFinished{SessionID: "s1"})
	})
	assert.True(t, delivered)
}
