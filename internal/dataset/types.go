// Package dataset defines the structured network description handed to the
// model: stations, lines with their stop lists and colors, and scheduled trips.
package dataset

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"transit-map/internal/network"
)

type Dataset struct {
	Stations []Station `json:"stations" yaml:"stations" validate:"dive"`
	Lines    []Line    `json:"lines" yaml:"lines" validate:"dive"`
}

// Station coordinates are in the planar map space.
type Station struct {
	Name string  `json:"name" yaml:"name"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

type Line struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Color Color  `json:"color" yaml:"color"`
	// indices into Dataset.Stations
	Stops []int  `json:"stops" yaml:"stops" validate:"min=2,dive,min=0"`
	Trips []Trip `json:"trips" yaml:"trips" validate:"dive"`
}

// Trip times are seconds, indexed in travel order.
type Trip struct {
	Direction  string    `json:"direction" yaml:"direction" validate:"oneof=upstream downstream"`
	Arrivals   []float64 `json:"arrivals" yaml:"arrivals" validate:"min=2"`
	Departures []float64 `json:"departures" yaml:"departures" validate:"min=2"`
}

// Color decodes from "#rrggbb" or an [r, g, b] triple.
type Color network.Color

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return c.parse(s)
	}
	var rgb []int
	if err := json.Unmarshal(b, &rgb); err != nil {
		return fmt.Errorf("color: want hex string or [r, g, b]: %w", err)
	}
	return c.fromTriple(rgb)
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return c.parse(value.Value)
	}
	var rgb []int
	if err := value.Decode(&rgb); err != nil {
		return fmt.Errorf("color: want hex string or [r, g, b]: %w", err)
	}
	return c.fromTriple(rgb)
}

func (c *Color) parse(s string) error {
	parsed, err := network.ParseColor(s)
	if err != nil {
		return err
	}
	*c = Color(parsed)
	return nil
}

func (c *Color) fromTriple(rgb []int) error {
	if len(rgb) != 3 {
		return fmt.Errorf("color: want 3 components, got %d", len(rgb))
	}
	for i, v := range rgb {
		if v < 0 || v > 255 {
			return fmt.Errorf("color: component %d out of range: %d", i, v)
		}
		c[i] = uint8(v)
	}
	return nil
}
