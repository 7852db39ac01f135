package gameserver

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stash/internal/game/item"
)

func newConsole(h *harness, in string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewConsole(h.peer, h.client, "alice", strings.NewReader(in), out, nil), out
}

func TestConsole_MoveAndShow(t *testing.T) {
	h := newHarness(t, true)
	h.seed(t, at(0, 0), item.NewStack("pebble", 2))
	c, out := newConsole(h, "")
	ctx := context.Background()

	require.NoError(t, c.Execute(ctx, "mv bag 0,0,0 bag 0,3,1"))
	assert.Contains(t, out.String(), "submitted")
	require.Eventually(t, h.settled, waitFor, 5*time.Millisecond)

	out.Reset()
	require.NoError(t, c.Execute(ctx, "show bag"))
	assert.Contains(t, out.String(), "bag (1 items)")
	assert.Contains(t, out.String(), "pebble")
}

func TestConsole_ShowAllInventories(t *testing.T) {
	h := newHarness(t, true)
	h.seed(t, at(1, 1), item.NewStack("plank", 2))
	c, out := newConsole(h, "")

	require.NoError(t, c.Execute(context.Background(), "show"))
	assert.Contains(t, out.String(), "bag (1 items)")
	assert.Contains(t, out.String(), "chest (0 items)")
	assert.Less(t, strings.Index(out.String(), "bag ("), strings.Index(out.String(), "chest ("))

	out.Reset()
	require.NoError(t, c.Execute(context.Background(), "i vault"))
	assert.Contains(t, out.String(), "vault: no such inventory")
}

func TestConsole_ClaimFloorAndErrors(t *testing.T) {
	h := newHarness(t, true)
	c, out := newConsole(h, "")
	ctx := context.Background()

	require.NoError(t, c.Execute(ctx, "claim bag 0,1,1"))
	assert.Contains(t, out.String(), ": true")
	require.NoError(t, c.Execute(ctx, "release bag 0,1,1"))

	_, ok := h.world.Spawn("hall", item.NewStack("plank", 1))
	require.True(t, ok)
	out.Reset()
	require.NoError(t, c.Execute(ctx, "look hall"))
	assert.Contains(t, out.String(), "plank")

	assert.NoError(t, c.Execute(ctx, "   "))
	assert.ErrorContains(t, c.Execute(ctx, "dance"), "unknown command")
	assert.ErrorContains(t, c.Execute(ctx, "move bag"), "usage")
	assert.Error(t, c.Execute(ctx, "move bag 0,9 bag 0,0,0"))
	assert.ErrorIs(t, c.Execute(ctx, "quit"), ErrQuit)
}

func TestConsole_StartQuitsOnEOF(t *testing.T) {
	h := newHarness(t, true)
	quit := make(chan struct{})
	c := NewConsole(h.peer, h.client, "alice", strings.NewReader("help\n"), &bytes.Buffer{}, func() { close(quit) })

	done := make(chan error, 1)
	go func() { done <- c.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("console did not stop at end of input")
	}
	_, open := <-quit
	assert.False(t, open)
}
