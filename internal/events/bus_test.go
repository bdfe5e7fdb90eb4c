package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animepin/internal/models"
)

func TestPublishDeliversSynchronously(t *testing.T) {
	bus := NewBus()

	var got []models.ImageRecord
	bus.DetailRequested.Subscribe(func(rec models.ImageRecord) {
		got = append(got, rec)
	})

	bus.DetailRequested.Publish(models.ImageRecord{ID: "img-1"})

	require.Len(t, got, 1)
	assert.Equal(t, "img-1", got[0].ID)
}

func TestUnsubscribedListenerStopsReceiving(t *testing.T) {
	bus := NewBus()

	count := 0
	cancel := bus.PanelRequested.Subscribe(func(PanelID) { count++ })

	bus.PanelRequested.Publish(PanelAbout)
	cancel()
	bus.PanelRequested.Publish(PanelTerms)

	assert.Equal(t, 1, count)
}

func TestMissedEventsAreNotReplayed(t *testing.T) {
	bus := NewBus()

	bus.PanelRequested.Publish(PanelAbout)

	count := 0
	bus.PanelRequested.Subscribe(func(PanelID) { count++ })

	assert.Zero(t, count, "subscribing must not replay past events")
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	bus := NewBus()

	a, b := 0, 0
	bus.Notices.Subscribe(func(Notice) { a++ })
	bus.Notices.Subscribe(func(Notice) { b++ })

	bus.Notify(NoticeInfo, "hello")

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestLaterDeliversOutsideCurrentCall(t *testing.T) {
	bus := NewBus()

	done := make(chan models.ImageRecord, 1)
	bus.DetailRequested.Subscribe(func(rec models.ImageRecord) {
		done <- rec
	})

	bus.DetailRequested.Later(models.ImageRecord{ID: "img-2"})

	select {
	case rec := <-done:
		assert.Equal(t, "img-2", rec.ID)
	case <-time.After(time.Second):
		t.Fatal("deferred publish never delivered")
	}
}

func TestNotifyOnNilBusIsSafe(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Notify(NoticeError, "ignored") })
}

func TestPanelIDValidation(t *testing.T) {
	assert.True(t, PanelAbout.Valid())
	assert.True(t, PanelContact.Valid())
	assert.False(t, PanelID("careers").Valid())
}
