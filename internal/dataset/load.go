package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"transit-map/internal/train"
)

type Format int

const (
	JSON Format = iota
	YAML
)

var validate = validator.New()

// FormatOf picks the decoder from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unsupported dataset extension %q", filepath.Ext(path))
}

// Decode parses and validates a dataset.
func Decode(data []byte, format Format) (*Dataset, error) {
	var ds Dataset
	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown dataset format %d", format)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func LoadFile(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Validate checks record shapes and the time order of every trip. Cross
// references (stop indices, schedule lengths) are checked when the model is
// built.
func (d *Dataset) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	for _, l := range d.Lines {
		for ti, trip := range l.Trips {
			if i := train.CheckOrder(trip.Arrivals, trip.Departures); i >= 0 {
				return fmt.Errorf("invalid dataset: line %q trip %d stop %d: %w", l.Name, ti, i, train.ErrScheduleOrder)
			}
		}
	}
	return nil
}
