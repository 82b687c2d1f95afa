// Package config loads optional converter settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bls2brs.dev/internal/brs"
	"bls2brs.dev/internal/mappings"
)

// Config is the full converter configuration. Everything is optional; the
// zero value is the default lenient conversion.
type Config struct {
	// Strict aborts on the first unmapped brick type.
	Strict bool `yaml:"strict"`
	// ReportDB is a sqlite path for the cross-run unknown-brick tally.
	ReportDB string `yaml:"report_db"`
	// Overrides adds or replaces literal mappings. An empty list drops
	// that brick type on purpose.
	Overrides map[string][]Override `yaml:"overrides"`
}

// Override is one user-supplied target brick, same shape as the embedded
// table entries.
type Override struct {
	Asset          string  `yaml:"asset"`
	Size           []int64 `yaml:"size"`
	Offset         []int64 `yaml:"offset"`
	RotationOffset *uint8  `yaml:"rotation_offset"`
	Color          []int64 `yaml:"color"`
}

// Load reads a config file. A missing path is not an error here; the
// caller decides whether the file is required.
func Load(path string) (Config, error) {
	var c Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Config) validate() error {
	for name, descs := range c.Overrides {
		for i, d := range descs {
			if d.Asset == "" {
				return fmt.Errorf("override %q[%d]: missing asset", name, i)
			}
			if d.Size != nil && len(d.Size) != 3 {
				return fmt.Errorf("override %q[%d]: size needs 3 values, got %d", name, i, len(d.Size))
			}
			if d.Offset != nil && len(d.Offset) != 3 {
				return fmt.Errorf("override %q[%d]: offset needs 3 values, got %d", name, i, len(d.Offset))
			}
			if d.Color != nil && len(d.Color) != 4 {
				return fmt.Errorf("override %q[%d]: color needs 4 values, got %d", name, i, len(d.Color))
			}
			if d.RotationOffset != nil && *d.RotationOffset > 3 {
				return fmt.Errorf("override %q[%d]: rotation_offset %d out of range", name, i, *d.RotationOffset)
			}
		}
	}
	return nil
}

// MappingOverrides converts the YAML overrides into mapping descriptors
// for the transform.
func (c Config) MappingOverrides() map[string][]mappings.BrickDesc {
	if len(c.Overrides) == 0 {
		return nil
	}
	out := make(map[string][]mappings.BrickDesc, len(c.Overrides))
	for name, descs := range c.Overrides {
		list := make([]mappings.BrickDesc, 0, len(descs))
		for _, d := range descs {
			desc := mappings.BrickDesc{Asset: d.Asset, RotationOffset: 1}
			for axis := 0; axis < 3 && axis < len(d.Size); axis++ {
				desc.Size[axis] = uint32(d.Size[axis])
			}
			for axis := 0; axis < 3 && axis < len(d.Offset); axis++ {
				desc.Offset[axis] = int32(d.Offset[axis])
			}
			if d.RotationOffset != nil {
				desc.RotationOffset = *d.RotationOffset
			}
			if len(d.Color) == 4 {
				desc.HasColor = true
				desc.Color = brs.ColorFromRGBA(uint8(d.Color[0]), uint8(d.Color[1]), uint8(d.Color[2]), uint8(d.Color[3]))
			}
			list = append(list, desc)
		}
		out[name] = list
	}
	return out
}
