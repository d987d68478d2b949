package db

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestParseOptions(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		opts, err := ParseOptions(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts != DefaultOptions() {
			t.Errorf("expected default options, got %+v", opts)
		}
	})

	t.Run("Values", func(t *testing.T) {
		opts, err := ParseOptions(map[string]any{
			"create_if_missing": false,
			"paranoid_checks":   true,
			"block_size":        float64(8192), // json numbers
			"max_open_files":    uint64(64),    // msgpack unsigned
			"block_cache_size":  int64(1 << 20),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.CreateIfMissing || !opts.ParanoidChecks {
			t.Errorf("bool options not applied: %+v", opts)
		}
		if opts.BlockSize != 8192 || opts.MaxOpenFiles != 64 || opts.BlockCacheSize != 1<<20 {
			t.Errorf("numeric options not applied: %+v", opts)
		}
		if opts.WriteBufferSize != DefaultOptions().WriteBufferSize {
			t.Errorf("absent option should keep its default")
		}
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := ParseOptions(map[string]any{"compression": true})
		if !errors.Is(err, ErrInvalidOption) {
			t.Errorf("expected ErrInvalidOption, got %v", err)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		for _, raw := range []map[string]any{
			{"paranoid_checks": "yes"},
			{"block_size": "big"},
			{"block_size": 1.5},
		} {
			if _, err := ParseOptions(raw); !errors.Is(err, ErrInvalidOption) {
				t.Errorf("%v: expected ErrInvalidOption, got %v", raw, err)
			}
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ParanoidChecks = true
		opts.BlockSize = 16 << 10

		parsed, err := ParseOptions(opts.ToMap())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed != opts {
			t.Errorf("expected %+v, got %+v", opts, parsed)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		for _, raw := range []map[string]any{
			{"write_buffer_size": 1},
			{"write_buffer_size": int64(1 << 40)},
			{"block_size": -1},
			{"block_size": int64(1 << 30)},
			{"block_cache_size": 1},
			{"max_open_files": 1},
			{"block_restart_interval": 1 << 20},
		} {
			if _, err := ParseOptions(raw); !errors.Is(err, ErrInvalidOption) {
				t.Errorf("%v: expected ErrInvalidOption, got %v", raw, err)
			}
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		opts, err := ParseOptions(map[string]any{
			"write_buffer_size": 64 << 10,
			"block_size":        256 << 20,
		})
		if err != nil {
			t.Fatalf("unexpected error at the bounds: %v", err)
		}
		if opts.WriteBufferSize != 64<<10 || opts.BlockSize != 256<<20 {
			t.Errorf("bounds not applied: %+v", opts)
		}
	})

	t.Run("ZeroFallsBackToDefault", func(t *testing.T) {
		opts, err := ParseOptions(map[string]any{"block_size": 0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.BlockSize != DefaultOptions().BlockSize {
			t.Errorf("expected default block size, got %d", opts.BlockSize)
		}
	})
}

func TestValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("default options must be valid: %v", err)
	}
	if err := (Options{}).Validate(); err != nil {
		t.Errorf("zero options mean defaults and must be valid: %v", err)
	}

	opts := DefaultOptions()
	opts.WriteBufferSize = 1
	if err := opts.Validate(); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}
}
