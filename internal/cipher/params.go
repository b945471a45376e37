package cipher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RowanDark/cryptkit/internal/codec"
)

// bytesParam reads a byte-valued parameter. Strings are decoded as hex.
func bytesParam(params map[string]any, name string) ([]byte, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	switch v := raw.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		b, err := codec.DecodeHex(strings.TrimPrefix(strings.TrimSpace(v), "0x"))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("parameter %s: unsupported type %T", name, raw)
	}
}

// intParam reads an integer parameter, returning def when it is absent.
// JSON and YAML decoders hand numbers over as float64 or int, and CLI flags
// as strings, so all three are accepted.
func intParam(params map[string]any, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("parameter %s: %v is not an integer", name, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("parameter %s: unsupported type %T", name, raw)
	}
}

// boolParam reads a boolean parameter, returning def when it is absent.
func boolParam(params map[string]any, name string, def bool) (bool, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("parameter %s: %w", name, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("parameter %s: unsupported type %T", name, raw)
	}
}

// ParseStep parses the compact step form used on the command line:
// "name key=value key=value". Values stay strings; operations convert them.
func ParseStep(s string) (OperationConfig, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return OperationConfig{}, fmt.Errorf("empty step")
	}
	cfg := OperationConfig{Name: fields[0]}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return OperationConfig{}, fmt.Errorf("step %s: parameter %q is not key=value", cfg.Name, field)
		}
		if cfg.Parameters == nil {
			cfg.Parameters = make(map[string]any)
		}
		cfg.Parameters[key] = value
	}
	return cfg, nil
}
