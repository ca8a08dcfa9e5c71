package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) *RelayEvent {
	select {
	case e := <-ch:
		r, ok := e.(*RelayEvent)
		require.True(t, ok)
		return r
	case <-time.After(2 * time.Second):
		require.Fail(t, "no event received")
	}

	return nil
}

func TestPubSub(t *testing.T) {
	w := NewPubSub(0)
	defer w.Close()

	ch, cancel := w.Subscribe(nil)
	defer cancel()

	e := NewRelayEvent(time.Unix(0, 0), KindPullSucceeded, "a.log", "pulled").WithData("size", 42)

	err := w.Publish(e)
	require.NoError(t, err)

	r := receive(t, ch)
	require.Equal(t, KindPullSucceeded, r.Kind)
	require.Equal(t, "a.log", r.File)
	require.Equal(t, 42, r.Data["size"])

	// Subscribers get a copy
	r.Data["size"] = 1
	require.Equal(t, 42, e.Data["size"])
}

func TestPubSubFilter(t *testing.T) {
	w := NewPubSub(16)
	defer w.Close()

	ch, cancel := w.Subscribe(func(e Event) bool {
		return e.(*RelayEvent).Level == "error"
	})
	defer cancel()

	w.Publish(NewRelayEvent(time.Now(), KindPullSucceeded, "a.log", ""))
	w.Publish(NewRelayEvent(time.Now(), KindPullFailed, "b.log", ""))

	r := receive(t, ch)
	require.Equal(t, "b.log", r.File)
}

func TestPubSubClose(t *testing.T) {
	w := NewPubSub(1)

	ch, _ := w.Subscribe(nil)

	w.Close()
	w.Close()

	_, ok := <-ch
	require.False(t, ok)

	err := w.Publish(NewRelayEvent(time.Now(), KindCycleStarted, "", ""))
	require.Error(t, err)
}

func TestLevel(t *testing.T) {
	require.Equal(t, "error", NewRelayEvent(time.Now(), KindStateFailed, "", "").Level)
	require.Equal(t, "warn", NewRelayEvent(time.Now(), KindChecksumMismatch, "", "").Level)
	require.Equal(t, "info", NewRelayEvent(time.Now(), KindCycleFinished, "", "").Level)
	require.Equal(t, "debug", NewRelayEvent(time.Now(), KindArtifactSaved, "", "").Level)
}
