// Package settings holds the configuration blob a host hands to a filter
// instance: string values layered over defaults, loadable from TOML.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// Setting keys and defaults.
const (
	// KeySenderName is the user-editable channel name.
	KeySenderName = "sender_name"

	// DefaultSenderName is the channel name used until the user sets one.
	DefaultSenderName = "texshare"
)

// ErrNotString is returned when a decoded value is not a string.
var ErrNotString = errors.New("settings: value is not a string")

// Data is a set of string values with defaults. The zero value is not
// usable; call New. Data is not safe for concurrent use.
type Data struct {
	values   map[string]string
	defaults map[string]string
}

// New returns empty settings.
func New() *Data {
	return &Data{
		values:   make(map[string]string),
		defaults: make(map[string]string),
	}
}

// SetDefaultString sets the default for key.
func (d *Data) SetDefaultString(key, value string) { d.defaults[key] = value }

// SetString sets key.
func (d *Data) SetString(key, value string) { d.values[key] = value }

// Unset removes the user value for key, exposing its default.
func (d *Data) Unset(key string) { delete(d.values, key) }

// String returns the value of key, its default if unset, or "".
func (d *Data) String(key string) string {
	if v, ok := d.values[key]; ok {
		return v
	}
	return d.defaults[key]
}

// Has reports whether key has a user value.
func (d *Data) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// HasDefault reports whether key has a default.
func (d *Data) HasDefault(key string) bool {
	_, ok := d.defaults[key]
	return ok
}

// Keys returns the keys with user values, sorted.
func (d *Data) Keys() []string {
	return slices.Sorted(maps.Keys(d.values))
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	return &Data{
		values:   maps.Clone(d.values),
		defaults: maps.Clone(d.defaults),
	}
}

// Apply copies every user value of src into d, keeping d's defaults.
func (d *Data) Apply(src *Data) {
	maps.Copy(d.values, src.values)
}

// Decode reads TOML key/value pairs from r. Every top-level value must be
// a string.
func Decode(r io.Reader) (*Data, error) {
	var raw map[string]any
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}
	d := New()
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T", ErrNotString, k, v)
		}
		d.values[k] = s
	}
	return d, nil
}

// Load decodes the TOML file at path.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the user values of d as TOML.
func Encode(w io.Writer, d *Data) error {
	b, err := toml.Marshal(d.values)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	_, err = io.Copy(w, bytes.NewReader(b))
	return err
}

// Save writes the user values of d to path.
func Save(path string, d *Data) error {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
