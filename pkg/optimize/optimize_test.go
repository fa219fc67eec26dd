package optimize

import (
	"testing"

	"github.com/matzehuels/detangle/pkg/errors"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"Defaults", DefaultOptions(), false},
		{"ZeroSpacingGetsDefault", Options{Priority: 10}, false},
		{"NegativeSpacing", Options{SpacingFactor: -1}, true},
		{"PriorityTooHigh", Options{SpacingFactor: 1, Priority: 101}, true},
		{"PriorityNegative", Options{SpacingFactor: 1, Priority: -1}, true},
		{"PriorityBounds", Options{SpacingFactor: 1, Priority: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidOptions) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidOptions)
			}
		})
	}
}

func TestOptionsValidateAppliesDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if opts.SpacingFactor != DefaultSpacingFactor {
		t.Errorf("SpacingFactor = %v, want %v", opts.SpacingFactor, DefaultSpacingFactor)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.AllowMovement {
		t.Error("AllowMovement = false, want true by default")
	}
	if opts.SpacingFactor != DefaultSpacingFactor {
		t.Errorf("SpacingFactor = %v, want %v", opts.SpacingFactor, DefaultSpacingFactor)
	}
	if opts.Priority != DefaultPriority {
		t.Errorf("Priority = %v, want %v", opts.Priority, DefaultPriority)
	}
}
