package config

import (
	"fmt"
	"time"

	"artnode/internal/artnet"
)

// Universe is an output address written either as "net.subnet.universe"
// or as a plain integer.
type Universe struct {
	artnet.Address
}

func (u *Universe) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		a, err := artnet.ParseAddress(v)
		if err != nil {
			return err
		}
		u.Address = a
		return nil
	case int64:
		if v < 0 || v > int64(artnet.MaxAddress) {
			return fmt.Errorf("universe %d out of range", v)
		}
		u.Address = artnet.Address(v)
		return nil
	default:
		return fmt.Errorf("unsupported universe type: %T", data)
	}
}

// Duration decodes TOML strings such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}
