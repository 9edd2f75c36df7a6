package filter

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidOption is returned for malformed or unsupported option values.
var ErrInvalidOption = errors.New("invalid filter option")

// Options holds the parsed form of a ':'-separated "key=value" option string.
// Bare values are kept as positional options.
type Options struct {
	raw        string
	values     map[string]string
	positional []string
}

// ParseOptions parses "key=value:key2=value2". Bare values such as "0.5" in
// "0.5:precision=fixed" are positional.
func ParseOptions(s string) (Options, error) {
	opts := Options{raw: s, values: map[string]string{}}
	for _, tok := range strings.Split(s, ":") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			opts.positional = append(opts.positional, tok)
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Options{}, fmt.Errorf("%w: missing key in %q", ErrInvalidOption, tok)
		}
		if _, dup := opts.values[key]; dup {
			return Options{}, fmt.Errorf("%w: duplicate key %q", ErrInvalidOption, key)
		}
		opts.values[key] = strings.TrimSpace(value)
	}
	return opts, nil
}

func (o Options) String() string { return o.raw }

// Get returns the value of key, or the positional value at pos when key is
// not set. A negative pos disables the positional fallback.
func (o Options) Get(key string, pos int) (string, bool) {
	if v, ok := o.values[key]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(o.positional) {
		return o.positional[pos], true
	}
	return "", false
}

func (o Options) Float(key string, pos int, def float64) (float64, error) {
	v, ok := o.Get(key, pos)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidOption, key, v)
	}
	return f, nil
}

func (o Options) Int(key string, pos int, def int) (int, error) {
	v, ok := o.Get(key, pos)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOption, key, v)
	}
	return n, nil
}

func (o Options) Bool(key string, pos int, def bool) (bool, error) {
	v, ok := o.Get(key, pos)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidOption, key, v)
	}
	return b, nil
}

// Check fails if a named option is not in known, or if there are more
// positional values than known keys.
func (o Options) Check(known ...string) error {
	for key := range o.values {
		if !slices.Contains(known, key) {
			return fmt.Errorf("%w: unknown option %q", ErrInvalidOption, key)
		}
	}
	if len(o.positional) > len(known) {
		return fmt.Errorf("%w: too many values in %q", ErrInvalidOption, o.raw)
	}
	return nil
}
