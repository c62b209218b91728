package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/insightdesk/internal/filters"
)

// Op names a filter command.
type Op string

const (
	OpSetDimension     Op = "set_dimension"
	OpClearDimension   Op = "clear_dimension"
	OpAddSearchTerm    Op = "add_search_term"
	OpRemoveSearchTerm Op = "remove_search_term"
	OpSetDateRange     Op = "set_date_range"
	OpSetThreshold     Op = "set_threshold"
	OpSetMode          Op = "set_mode"
	OpClearAll         Op = "clear_all"
	OpRefresh          Op = "refresh"
)

// ErrInvalidCommand is returned for commands that cannot be applied.
var ErrInvalidCommand = errors.New("session: invalid command")

// Command is one user edit of the filter state. Start and End accept
// RFC 3339 timestamps or dates; an empty bound is open.
type Command struct {
	Op        Op                 `json:"op"`
	Dimension filters.Dimension  `json:"dimension,omitempty"`
	Value     string             `json:"value,omitempty"`
	Term      string             `json:"term,omitempty"`
	Start     string             `json:"start,omitempty"`
	End       string             `json:"end,omitempty"`
	Metric    filters.Metric     `json:"metric,omitempty"`
	Min       *float64           `json:"min,omitempty"`
	Mode      filters.SearchMode `json:"mode,omitempty"`
}

func (c Command) apply(state *filters.State) error {
	switch c.Op {
	case OpSetDimension:
		return wrapCommand(c.Op, state.SetDimension(c.Dimension, c.Value))
	case OpClearDimension:
		state.ClearDimension(c.Dimension)
	case OpAddSearchTerm:
		state.AddSearchTerm(c.Term)
	case OpRemoveSearchTerm:
		state.RemoveSearchTerm(c.Term)
	case OpSetDateRange:
		start, err := bound(c.Start, false)
		if err != nil {
			return err
		}
		end, err := bound(c.End, true)
		if err != nil {
			return err
		}
		state.SetDateRange(start, end)
	case OpSetThreshold:
		return wrapCommand(c.Op, state.SetThreshold(c.Metric, c.Min))
	case OpSetMode:
		mode, err := filters.ParseSearchMode(string(c.Mode))
		if err != nil {
			return wrapCommand(c.Op, err)
		}
		state.SetMode(mode)
	case OpClearAll:
		state.ClearAll()
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	return nil
}

func bound(raw string, end bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, ok := filters.ParseBound(raw, end)
	if !ok {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidCommand, raw)
	}
	return &t, nil
}

func wrapCommand(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidCommand, op, err)
}
