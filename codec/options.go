package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/subtype"
	"github.com/wippyai/candid/typetable"
)

// Options configures encoding and decoding. A zero limit selects the
// default for that limit.
type Options struct {
	// Mode selects the option subtyping rule. Strict is the default.
	Mode subtype.Mode

	// MaxDepth bounds value nesting and subtyping recursion.
	MaxDepth int

	// MaxTypeTableSize bounds the number of entries in a wire type table.
	MaxTypeTableSize int

	// MaxFuel bounds the total work of one call, counting every value
	// read, skipped or coerced and every pair of types compared.
	MaxFuel int

	// MaxArgs bounds the number of arguments in a message.
	MaxArgs int

	// MaxZeroSized bounds the number of vector elements of a zero-sized
	// type (null, reserved, records of those) one message may claim.
	// Such elements occupy no bytes, so the message length does not
	// bound them.
	MaxZeroSized int
}

// DefaultMaxZeroSized is the default budget of zero-sized vector elements.
const DefaultMaxZeroSized = 1 << 16

// DefaultOptions returns strict decoding with the default limits.
func DefaultOptions() Options {
	return Options{
		Mode:             subtype.Strict,
		MaxDepth:         subtype.DefaultMaxDepth,
		MaxTypeTableSize: typetable.DefaultMaxTableSize,
		MaxFuel:          subtype.DefaultMaxFuel,
		MaxArgs:          typetable.DefaultMaxArgs,
		MaxZeroSized:     DefaultMaxZeroSized,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}
	fill(&o.MaxDepth, d.MaxDepth)
	fill(&o.MaxTypeTableSize, d.MaxTypeTableSize)
	fill(&o.MaxFuel, d.MaxFuel)
	fill(&o.MaxArgs, d.MaxArgs)
	fill(&o.MaxZeroSized, d.MaxZeroSized)
	return o
}

// Validate reports the first negative limit or an unknown mode.
func (o Options) Validate() error {
	limits := []struct {
		name string
		v    int
	}{
		{"max_depth", o.MaxDepth},
		{"max_type_table_size", o.MaxTypeTableSize},
		{"max_fuel", o.MaxFuel},
		{"max_args", o.MaxArgs},
		{"max_zero_sized", o.MaxZeroSized},
	}
	for _, l := range limits {
		if l.v < 0 {
			return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("%s must not be negative, got %d", l.name, l.v))
		}
	}
	if o.Mode != subtype.Strict && o.Mode != subtype.Opportunistic {
		return errors.InvalidInput(errors.PhaseConfig, "unknown mode "+o.Mode.String())
	}
	return nil
}

func (o Options) checker() *subtype.Checker {
	return subtype.NewChecker(subtype.Options{Mode: o.Mode, MaxDepth: o.MaxDepth, MaxFuel: o.MaxFuel})
}

func (o Options) limits() typetable.Limits {
	return typetable.Limits{MaxTableSize: o.MaxTypeTableSize, MaxArgs: o.MaxArgs}
}

// optionsFile is the YAML form of Options. Absent keys keep their defaults.
type optionsFile struct {
	Mode             *string `yaml:"mode"`
	MaxDepth         *int    `yaml:"max_depth"`
	MaxTypeTableSize *int    `yaml:"max_type_table_size"`
	MaxFuel          *int    `yaml:"max_fuel"`
	MaxArgs          *int    `yaml:"max_args"`
	MaxZeroSized     *int    `yaml:"max_zero_sized"`
}

// LoadOptions reads options from YAML, starting from DefaultOptions:
//
//	mode: opportunistic
//	max_depth: 256
//	max_type_table_size: 1000
//	max_fuel: 1000000
//	max_args: 64
//	max_zero_sized: 4096
//
// A limit set to 0 keeps its default.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()

	var f optionsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Options{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse options")
	}

	if f.Mode != nil {
		m, err := subtype.ParseMode(*f.Mode)
		if err != nil {
			return Options{}, err
		}
		opts.Mode = m
	}
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&opts.MaxDepth, f.MaxDepth)
	set(&opts.MaxTypeTableSize, f.MaxTypeTableSize)
	set(&opts.MaxFuel, f.MaxFuel)
	set(&opts.MaxArgs, f.MaxArgs)
	set(&opts.MaxZeroSized, f.MaxZeroSized)

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts.withDefaults(), nil
}
