package common

import (
	"time"

	"github.com/invopop/jsonschema"
)

// Duration is a time.Duration that is configured as a Go duration string ("30s", "1h30m").
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText parses a duration string. Used by the JSON, YAML and TOML decoders.
func (d *Duration) UnmarshalText(data []byte) error {
	parsed, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}

	d.Duration = parsed

	return nil
}

// MarshalText renders the duration in the same format UnmarshalText accepts.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// JSONSchema describes Duration as a string in generated config schemas.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "string",
		Title: "Duration",
		Description: "Duration expressed in units: " +
			"[ns, us, ms, s, m, h] (e.g. 1h30m, 45s)",
		Examples: []any{"1m", "300ms"},
	}
}
