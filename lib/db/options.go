package db

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Options configures how a database is opened.
// Zero values are replaced by the defaults from DefaultOptions.
type Options struct {
	CreateIfMissing      bool  `json:"create_if_missing"`
	ErrorIfExists        bool  `json:"error_if_exists"`
	ParanoidChecks       bool  `json:"paranoid_checks"`
	BlockCacheSize       int64 `json:"block_cache_size"`
	WriteBufferSize      int64 `json:"write_buffer_size"`
	BlockSize            int   `json:"block_size"`
	MaxOpenFiles         int   `json:"max_open_files"`
	BlockRestartInterval int   `json:"block_restart_interval"`
}

// ErrInvalidOption is wrapped by every error returned from ParseOptions and Validate
var ErrInvalidOption = errors.New("invalid database option")

// optionBounds are the inclusive ranges accepted for the numeric options.
// 0 always means "use the default".
var optionBounds = map[string][2]int64{
	"block_cache_size":       {1 << 10, 1 << 40},  // 1 KB .. 1 TB
	"write_buffer_size":      {64 << 10, 2 << 30}, // 64 KB .. 2 GB, the memtable arena is addressed with 32 bits
	"block_size":             {256, 256 << 20},    // 256 B .. 256 MB
	"max_open_files":         {16, 1 << 20},
	"block_restart_interval": {1, 1 << 10},
}

// DefaultOptions returns the options used when a database is created without any
func DefaultOptions() Options {
	return Options{
		CreateIfMissing:      true,
		ErrorIfExists:        false,
		ParanoidChecks:       false,
		BlockCacheSize:       8 << 20, // 8 MB
		WriteBufferSize:      4 << 20, // 4 MB
		BlockSize:            4 << 10, // 4 KB
		MaxOpenFiles:         1000,
		BlockRestartInterval: 16,
	}
}

// WithDefaults fills every non-positive numeric field with its default
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.BlockCacheSize <= 0 {
		o.BlockCacheSize = d.BlockCacheSize
	}
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = d.WriteBufferSize
	}
	if o.BlockSize <= 0 {
		o.BlockSize = d.BlockSize
	}
	if o.MaxOpenFiles <= 0 {
		o.MaxOpenFiles = d.MaxOpenFiles
	}
	if o.BlockRestartInterval <= 0 {
		o.BlockRestartInterval = d.BlockRestartInterval
	}
	return o
}

// ParseOptions builds Options from a loosely typed map as received over the wire.
// Absent keys keep their default. Unknown keys and values of the wrong type are
// rejected with an error wrapping ErrInvalidOption.
func ParseOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()

	// iterate in a stable order so the reported error is deterministic
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		var err error
		switch strings.ToLower(k) {
		case "create_if_missing":
			opts.CreateIfMissing, err = toBool(v)
		case "error_if_exists":
			opts.ErrorIfExists, err = toBool(v)
		case "paranoid_checks":
			opts.ParanoidChecks, err = toBool(v)
		case "block_cache_size":
			opts.BlockCacheSize, err = toInt(v)
		case "write_buffer_size":
			opts.WriteBufferSize, err = toInt(v)
		case "block_size":
			var n int64
			n, err = toInt(v)
			opts.BlockSize = int(n)
		case "max_open_files":
			var n int64
			n, err = toInt(v)
			opts.MaxOpenFiles = int(n)
		case "block_restart_interval":
			var n int64
			n, err = toInt(v)
			opts.BlockRestartInterval = int(n)
		default:
			return Options{}, errors.Wrapf(ErrInvalidOption, "unknown option %q", k)
		}
		if err != nil {
			return Options{}, errors.Wrapf(ErrInvalidOption, "option %q: %v", k, err)
		}
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts.WithDefaults(), nil
}

// Validate checks every numeric option against its accepted range.
// The returned error wraps ErrInvalidOption.
func (o Options) Validate() error {
	values := map[string]int64{
		"block_cache_size":       o.BlockCacheSize,
		"write_buffer_size":      o.WriteBufferSize,
		"block_size":             int64(o.BlockSize),
		"max_open_files":         int64(o.MaxOpenFiles),
		"block_restart_interval": int64(o.BlockRestartInterval),
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, bounds := values[name], optionBounds[name]
		if v == 0 {
			continue
		}
		if v < bounds[0] || v > bounds[1] {
			return errors.Wrapf(ErrInvalidOption, "option %q: %d is outside [%d, %d]", name, v, bounds[0], bounds[1])
		}
	}
	return nil
}

// ToMap converts the options into the wire representation accepted by ParseOptions
func (o Options) ToMap() map[string]any {
	return map[string]any{
		"create_if_missing":      o.CreateIfMissing,
		"error_if_exists":        o.ErrorIfExists,
		"paranoid_checks":        o.ParanoidChecks,
		"block_cache_size":       o.BlockCacheSize,
		"write_buffer_size":      o.WriteBufferSize,
		"block_size":             int64(o.BlockSize),
		"max_open_files":         int64(o.MaxOpenFiles),
		"block_restart_interval": int64(o.BlockRestartInterval),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func toBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return toInt(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
