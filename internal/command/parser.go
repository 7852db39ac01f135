package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/stash/internal/game/grid"
)

// ParseResult holds the parsed command name and arguments from a console line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
}

// Parse splits a console line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// ParseSlot reads a slot written as "tab,x,y".
//
// Postcondition: Returns an initialized SlotHandle or a non-nil error.
func ParseSlot(s string) (grid.SlotHandle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return grid.SlotHandle{}, fmt.Errorf("slot %q: want tab,x,y", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return grid.SlotHandle{}, fmt.Errorf("slot %q: %q is not a non-negative integer", s, p)
		}
		n[i] = v
	}
	return grid.NewSlotHandle(n[0], n[1], n[2]), nil
}

// ParseOrientation reads "h"/"horizontal" or "v"/"vertical".
func ParseOrientation(s string) (grid.Orientation, error) {
	switch strings.ToLower(s) {
	case "h", "horizontal":
		return grid.Horizontal, nil
	case "v", "vertical":
		return grid.Vertical, nil
	}
	return grid.Horizontal, fmt.Errorf("orientation %q: want horizontal or vertical", s)
}
