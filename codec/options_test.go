package codec

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/candid/errors"
	"github.com/wippyai/candid/subtype"
	"github.com/wippyai/candid/types"
	"github.com/wippyai/candid/value"
)

func TestDefaultOptionsValid(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if opts.Mode != subtype.Strict {
		t.Errorf("default mode = %s, want strict", opts.Mode)
	}
}

func TestLoadOptions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, o Options)
		wantErr bool
	}{
		{
			name: "empty keeps defaults",
			yaml: "",
			check: func(t *testing.T, o Options) {
				if o != DefaultOptions() {
					t.Errorf("got %+v", o)
				}
			},
		},
		{
			name: "override",
			yaml: "mode: opportunistic\nmax_depth: 64\nmax_fuel: 5000\n",
			check: func(t *testing.T, o Options) {
				if o.Mode != subtype.Opportunistic || o.MaxDepth != 64 || o.MaxFuel != 5000 {
					t.Errorf("got %+v", o)
				}
				if o.MaxArgs != DefaultOptions().MaxArgs {
					t.Errorf("max_args changed to %d", o.MaxArgs)
				}
			},
		},
		{name: "unknown key", yaml: "max_bytes: 10\n", wantErr: true},
		{name: "unknown mode", yaml: "mode: lenient\n", wantErr: true},
		{
			name: "zero limit keeps default",
			yaml: "max_type_table_size: 0\nmax_zero_sized: 0\n",
			check: func(t *testing.T, o Options) {
				if o != DefaultOptions() {
					t.Errorf("got %+v", o)
				}
			},
		},
		{name: "negative zero-sized budget", yaml: "max_zero_sized: -5\n", wantErr: true},
		{name: "negative limit", yaml: "max_args: -1\n", wantErr: true},
		{name: "not a number", yaml: "max_depth: deep\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := LoadOptions(strings.NewReader(tt.yaml))
			if tt.wantErr {
				var e *errors.Error
				if !stderrors.As(err, &e) || e.Phase != errors.PhaseConfig {
					t.Fatalf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadOptions: %v", err)
			}
			tt.check(t, o)
		})
	}
}

func TestZeroLimitsTakeDefaults(t *testing.T) {
	sparse := Options{Mode: subtype.Opportunistic}
	if err := sparse.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	data, err := NewEncoder(Options{}).Encode([]*types.Type{types.NatType}, []value.Value{value.NewNat(7)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := NewDecoder(sparse).Decode(data, []*types.Type{types.Opt(types.TextType)})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !value.Equal(got[0], value.None()) {
		t.Errorf("got %#v, want none", got[0])
	}

	d := NewDecoder(Options{MaxDepth: 3})
	if d.opts.MaxDepth != 3 || d.opts.MaxFuel != DefaultOptions().MaxFuel || d.opts.MaxZeroSized != DefaultMaxZeroSized {
		t.Errorf("opts = %+v", d.opts)
	}
}
