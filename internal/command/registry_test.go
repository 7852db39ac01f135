package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/stash/internal/game/grid"
	"github.com/cory-johannsen/stash/internal/game/transaction"
)

func TestResolve_NamesAndAliases(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		input   string
		handler string
	}{
		{"move", HandlerMove},
		{"mv", HandlerMove},
		{"rot", HandlerRotate},
		{"drop", HandlerDrop},
		{"get", HandlerLoot},
		{"l", HandlerFloor},
		{"i", HandlerShow},
		{"?", HandlerHelp},
		{"exit", HandlerQuit},
	}
	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.input)
		require.True(t, ok, "input %q not found", tt.input)
		assert.Equal(t, tt.handler, cmd.Handler, "input %q wrong handler", tt.input)
	}
	_, ok := r.Resolve("swap")
	assert.False(t, ok)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "test"}, {Name: "test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "test1", Aliases: []string{"t"}},
		{Name: "test2", Aliases: []string{"t"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestHelp_ListsEveryCommand(t *testing.T) {
	r := DefaultRegistry()
	help := r.Help()
	for _, cmd := range r.Commands() {
		assert.Contains(t, help, cmd.Usage)
	}
	cats := r.CommandsByCategory()
	assert.Len(t, cats, 3)
}

func TestBuildTransaction(t *testing.T) {
	r := DefaultRegistry()
	build := func(line string) (transaction.Transaction, error) {
		p := Parse(line)
		cmd, ok := r.Resolve(p.Command)
		require.True(t, ok, line)
		require.True(t, cmd.IsTransaction(), line)
		return BuildTransaction(cmd, p.Args, "alice")
	}

	tx, err := build("move bag 0,0,0 chest 1,2,3")
	require.NoError(t, err)
	assert.Equal(t, transaction.KindMove, tx.Kind)
	assert.Equal(t, grid.NewSlotHandle(1, 2, 3), tx.Move.TargetSlot)
	assert.Nil(t, tx.Move.Orientation)
	assert.NoError(t, tx.Validate())

	tx, err = build("rot bag 0,0,0 bag 0,0,0 v")
	require.NoError(t, err)
	require.NotNil(t, tx.Move.Orientation)
	assert.Equal(t, grid.Vertical, *tx.Move.Orientation)

	tx, err = build("drop bag 0,1,0 hall 3")
	require.NoError(t, err)
	assert.Equal(t, 3, tx.Drop.Quantity)
	assert.Equal(t, "hall", tx.Drop.Location)

	tx, err = build("drop bag 0,1,0 hall")
	require.NoError(t, err)
	assert.Equal(t, 0, tx.Drop.Quantity, "whole stack")

	tx, err = build("loot bag w-1")
	require.NoError(t, err)
	assert.Equal(t, "w-1", tx.Loot.WorldItem)
	assert.Equal(t, "alice", string(tx.Instigator))

	_, err = build("move bag 0,0,0")
	assert.Error(t, err, "too few args")
	_, err = build("move bag 0,0 chest 0,0,0")
	assert.Error(t, err)
	_, err = build("drop bag 0,0,0 hall many")
	assert.Error(t, err)

	show, _ := r.Resolve("show")
	assert.False(t, show.IsTransaction())
	_, err = BuildTransaction(show, nil, "alice")
	assert.Error(t, err)
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		cmd := cmds[rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")]
		for _, alias := range cmd.Aliases {
			resolved, ok := r.Resolve(alias)
			if !ok || resolved.Name != cmd.Name {
				t.Fatalf("alias %q did not resolve to %q", alias, cmd.Name)
			}
		}
	})
}
