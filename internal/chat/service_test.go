package chat

import (
	"testing"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(sink *metrics.InmemSink, key string) int {
	total := 0
	for _, interval := range sink.Data() {
		interval.RLock()
		if v, ok := interval.Counters[key]; ok {
			total += v.Count
		}
		interval.RUnlock()
	}
	return total
}

func gauge(sink *metrics.InmemSink, key string) (float32, bool) {
	data := sink.Data()
	for i := len(data) - 1; i >= 0; i-- {
		data[i].RLock()
		v, ok := data[i].Gauges[key]
		data[i].RUnlock()
		if ok {
			return v.Value, true
		}
	}
	return 0, false
}

func sampleMax(sink *metrics.InmemSink, key string) (float64, bool) {
	data := sink.Data()
	for i := len(data) - 1; i >= 0; i-- {
		data[i].RLock()
		v, ok := data[i].Samples[key]
		data[i].RUnlock()
		if ok {
			return v.Max, true
		}
	}
	return 0, false
}

func TestDisconnectLeavesGroupAndNotifiesIt(t *testing.T) {
	svc, _ := newTestService(t)
	outsider := connect(t, svc, ModeChat, "eve")

	a := whisper(t, svc, "alice")
	a.say(".complete")
	a.expect(t, "Your group ID is 0.")

	b := whisper(t, svc, "bob")
	b.say(".id0")
	b.expect(t, "You have joined group 'g0'!")

	b.hangUp(t)
	a.expect(t, "[system]: user 'bob' disconnected!")
	outsider.expectNothing(t, "'bob' disconnected", quiet)

	g := svc.Groups().FindByID(0)
	require.NotNil(t, g)
	assert.False(t, contains(g.Members(), svc.Connections().FindByID(2)))
	assert.Equal(t, 1, g.Len())

	a.say("anyone?")
	a.expect(t, "*g0* [alice]: anyone?")
	b.expectNothing(t, "anyone?", quiet)
}

func TestDisconnectInPlainChatNotifiesEveryone(t *testing.T) {
	svc, _ := newTestService(t)
	a := connect(t, svc, ModeChat, "")
	b := connect(t, svc, ModeChat, "bob")
	c := connect(t, svc, ModeChat, "")

	b.hangUp(t)
	a.expect(t, "[system]: user 'bob' disconnected!")
	c.expect(t, "[system]: user 'bob' disconnected!")
	assert.Equal(t, 2, svc.Connections().Count())
	assert.Nil(t, svc.Connections().FindByIDOrNickFragment("bob"))
}

func TestDeliveryIsolatesRefusingSink(t *testing.T) {
	svc, sink := newTestService(t)
	a := connect(t, svc, ModeChat, "")
	b := connect(t, svc, ModeChat, "")
	c := connect(t, svc, ModeChat, "")

	// b stops accepting without leaving the registry.
	b.Close()

	a.say("still flowing")
	c.expect(t, "[user0]: still flowing")
	a.expect(t, "[user0]: still flowing")
	assert.GreaterOrEqual(t, counter(sink, "whisperchat.delivery.dropped"), 1)
}

func TestServiceTelemetry(t *testing.T) {
	svc, sink := newTestService(t)
	a := connect(t, svc, ModeChat, "")
	b := connect(t, svc, ModeChat, "bob")

	a.say("one")
	b.expect(t, "[user0]: one")
	a.say("rbob:two")
	b.expect(t, "*Whisper* [user0]: two")

	assert.Equal(t, 2, counter(sink, "whisperchat.connection.opened;mode=chat"))
	assert.Equal(t, 1, counter(sink, "whisperchat.message.routed;route=broadcast"))
	assert.Equal(t, 1, counter(sink, "whisperchat.message.routed;route=direct"))

	live, ok := gauge(sink, "whisperchat.connection.live")
	require.True(t, ok)
	assert.Equal(t, float32(2), live)

	w := whisper(t, svc, "")
	w.say(".complete")
	w.expect(t, "Your group ID is 0.")
	assert.Equal(t, 1, counter(sink, "whisperchat.group.created"))
	size, ok := sampleMax(sink, "whisperchat.group.size")
	require.True(t, ok)
	assert.Equal(t, float64(1), size)

	b.hangUp(t)
	assert.Equal(t, 1, counter(sink, "whisperchat.connection.closed;mode=chat"))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "chat", ModeChat.String())
	assert.Equal(t, "whisper", ModeWhisper.String())
}
