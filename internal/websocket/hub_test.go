package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transdoc/api/internal/model"
)

func TestNotifyDeliversToHandleOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{Handle: "a", Send: make(chan []byte, 4)}
	b := &Client{Handle: "b", Send: make(chan []byte, 4)}
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.Connected("a") == 1 && hub.Connected("b") == 1 }, time.Second, 5*time.Millisecond)

	hub.Notify("a", model.EventTranslationComplete, model.TranslationComplete{JobID: "j", Status: "completed", FileName: "f.pdf"})

	select {
	case raw := <-a.Send:
		var msg struct {
			Event string                    `json:"event"`
			Data  model.TranslationComplete `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, model.EventTranslationComplete, msg.Event)
		assert.Equal(t, "f.pdf", msg.Data.FileName)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	select {
	case <-b.Send:
		t.Fatal("message leaked to another handle")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNotifyWithoutHandleIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Notify("", model.EventTranslationFailed, nil)
	assert.Len(t, hub.broadcast, 0)
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{Handle: "x", Send: make(chan []byte, 1)}
	hub.Register(c)
	hub.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, hub.Connected("x"))
}

func TestRegisterAfterStopReturns(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	c := &Client{Handle: "late", Send: make(chan []byte, 1)}
	done := make(chan struct{})
	go func() {
		hub.Register(c)
		hub.Unregister(c)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
	assert.Zero(t, hub.Connected("late"))
}
