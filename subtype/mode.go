package subtype

import (
	"fmt"

	"github.com/wippyai/candid/errors"
)

// Mode selects the option rule used by subtyping and coercion.
type Mode uint8

const (
	// Strict relates T to opt T' only when the opt-like shape of both sides
	// agrees. Coercion results are unique.
	Strict Mode = iota
	// Opportunistic relates every type to every option. A value that does
	// not fit the option's payload decodes as an absent option.
	Opportunistic
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Opportunistic:
		return "opportunistic"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "opportunistic":
		return Opportunistic, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown subtyping mode %q", s))
}

const (
	DefaultMaxDepth = 1024
	DefaultMaxFuel  = 1 << 24
)

// Options configure a Checker. Zero limits mean the defaults.
type Options struct {
	Mode     Mode
	MaxDepth int
	MaxFuel  int
}

// DefaultOptions returns strict mode with the default limits.
func DefaultOptions() Options {
	return Options{Mode: Strict, MaxDepth: DefaultMaxDepth, MaxFuel: DefaultMaxFuel}
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFuel <= 0 {
		o.MaxFuel = DefaultMaxFuel
	}
	return o
}
