package eventfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-duel/sdk"
)

func TestFeedDeliversMatchingEvents(t *testing.T) {
	f := New(4)
	all, cancelAll := f.Subscribe(nil)
	defer cancelAll()
	seven, cancelSeven := f.Subscribe(SessionFilter("7"))
	defer cancelSeven()

	f.Publish(10, []sdk.Event{
		{Type: "sessionCreated", Attributes: map[string]string{"id": "7"}},
		{Type: "sessionCreated", Attributes: map[string]string{"id": "8"}},
		{Type: "hubChanged", Attributes: map[string]string{"to": "HUB"}},
	})

	require.Len(t, all, 3)
	require.Len(t, seven, 1)
	msg := <-seven
	assert.Equal(t, Message{Ledger: 10, Type: "sessionCreated", Attributes: map[string]string{"id": "7"}}, msg)
}

func TestFeedDropsSlowSubscriber(t *testing.T) {
	f := New(1)
	slow, cancel := f.Subscribe(nil)
	f.Publish(1, []sdk.Event{{Type: "a"}, {Type: "b"}})

	assert.Equal(t, 0, f.Len())
	_, ok := <-slow
	assert.True(t, ok, "buffered message is still readable")
	_, ok = <-slow
	assert.False(t, ok)
	cancel()
}

func TestFeedCancelAndClose(t *testing.T) {
	f := New(0)
	ch, cancel := f.Subscribe(nil)
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	_, cancel2 := f.Subscribe(nil)
	defer cancel2()
	assert.Equal(t, 1, f.Len())
	f.Close()
	assert.Equal(t, 0, f.Len())

	late, _ := f.Subscribe(nil)
	_, ok = <-late
	assert.False(t, ok)
}
