package server

import (
	"github.com/ValentinKolb/mKV/rpc/common"
)

// --------------------------------------------------------------------------
// Positional argument parsing
// --------------------------------------------------------------------------

// Missing arguments are reported as InvalidValue, arguments of the wrong type
// depend on the argument. Surplus arguments are ignored.

func arg(cmd common.Command, data []any, i int) (any, *Failure) {
	if i >= len(data) {
		return nil, newFailure(common.KindInvalidValue,
			"%s expects at least %d argument(s), got %d", cmd, i+1, len(data))
	}
	return data[i], nil
}

// bytesArg returns argument i as a key or value
func bytesArg(cmd common.Command, data []any, i int) ([]byte, *Failure) {
	v, f := arg(cmd, data, i)
	if f != nil {
		return nil, f
	}
	b, ok := common.AsBytes(v)
	if !ok {
		return nil, newFailure(common.KindUnsupportedType, "Unsupported value type : %s", common.TypeName(v))
	}
	return b, nil
}

// boundArg returns argument i as a range bound. A missing or nil argument is an open bound.
func boundArg(cmd common.Command, data []any, i int) ([]byte, *Failure) {
	if i >= len(data) || data[i] == nil {
		return nil, nil
	}
	return bytesArg(cmd, data, i)
}

// nameArg returns argument i as a database name
func nameArg(cmd common.Command, data []any, i int) (string, *Failure) {
	v, f := arg(cmd, data, i)
	if f != nil {
		return "", f
	}
	name, ok := common.AsString(v)
	if !ok {
		return "", newFailure(common.KindInvalidValue, "Database name must be a string, got %s", common.TypeName(v))
	}
	return name, nil
}

// countArg returns argument i as a non-negative integer
func countArg(cmd common.Command, data []any, i int) (int, *Failure) {
	v, f := arg(cmd, data, i)
	if f != nil {
		return 0, f
	}
	n, ok := common.AsInt(v)
	if !ok || n < 0 {
		return 0, newFailure(common.KindInvalidValue, "%s expects a non-negative integer, got %v", cmd, v)
	}
	return int(n), nil
}

// listArg returns argument i as a list
func listArg(cmd common.Command, data []any, i int) ([]any, *Failure) {
	v, f := arg(cmd, data, i)
	if f != nil {
		return nil, f
	}
	list, ok := common.AsList(v)
	if !ok {
		return nil, newFailure(common.KindInvalidValue, "%s expects a list, got %s", cmd, common.TypeName(v))
	}
	return list, nil
}

// optionsArg returns argument i as an options map. A missing or nil argument yields nil.
func optionsArg(cmd common.Command, data []any, i int) (map[string]any, *Failure) {
	if i >= len(data) || data[i] == nil {
		return nil, nil
	}
	m, ok := common.AsMap(data[i])
	if !ok {
		return nil, newFailure(common.KindInvalidValue, "%s expects an options map, got %s", cmd, common.TypeName(data[i]))
	}
	return m, nil
}
