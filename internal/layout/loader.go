package layout

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/dietdash/internal/contracts"
)

//go:embed default.yaml
var defaultYAML []byte

// Load reads the layout at path, or the embedded default when path is
// empty
func Load(path string) (*Layout, error) {
	if path == "" {
		return Parse(defaultYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded layout
func Default() *Layout {
	l, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded layout: %v", err))
	}
	return l
}

// Parse decodes and validates layout YAML.
// KnownFields(true): a misspelled key fails instead of being ignored.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	if err := Validate(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Hash fingerprints a layout (SHA256 of its canonical JSON)
func Hash(l *Layout) (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ControlDefaults encodes the defaults as control values, ready for
// the callback registry. The map starts unclicked.
func (l *Layout) ControlDefaults() map[contracts.ControlID]json.RawMessage {
	d := l.Defaults
	enc := func(v interface{}) json.RawMessage {
		data, _ := json.Marshal(v)
		return data
	}

	return map[contracts.ControlID]json.RawMessage{
		contracts.ControlSlider:         enc(d.Slider),
		contracts.ControlCovidCountries: enc(d.CovidCountries),
		contracts.ControlXAxis:          enc(d.XAxis),
		contracts.ControlYAxis:          enc(d.YAxis),
		contracts.ControlPointsSize:     enc(d.PointsSize),
		contracts.ControlFoodCountry:    enc(d.FoodCountry),
		contracts.ControlFoodCategory:   enc(d.MapMetric),
		contracts.ControlMap:            json.RawMessage("null"),
	}
}
