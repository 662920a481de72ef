package callbacks

import (
	"encoding/json"
	"fmt"

	"github.com/wonny/dietdash/internal/contracts"
)

// Values holds the raw JSON value of every input of one callback
type Values map[contracts.ControlID]json.RawMessage

func (v Values) raw(id contracts.ControlID) (json.RawMessage, error) {
	raw, ok := v[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no value", contracts.ErrInvalidControl, id)
	}
	return raw, nil
}

// String decodes a single-choice control
func (v Values) String(id contracts.ControlID) (string, error) {
	raw, err := v.raw(id)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", contracts.ErrInvalidControl, id, err)
	}
	return s, nil
}

// Strings decodes a multi-select control. A single string or null is
// accepted too.
func (v Values) Strings(id contracts.ControlID) ([]string, error) {
	raw, err := v.raw(id)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("%w: %s: expected a list of names", contracts.ErrInvalidControl, id)
	}
	return []string{one}, nil
}

// Window decodes a range slider value, [start, end]
func (v Values) Window(id contracts.ControlID) (contracts.RankWindow, error) {
	raw, err := v.raw(id)
	if err != nil {
		return contracts.RankWindow{}, err
	}
	var pair []int
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return contracts.RankWindow{}, fmt.Errorf("%w: %s: expected [start, end]", contracts.ErrInvalidControl, id)
	}
	w := contracts.RankWindow{Start: pair[0], End: pair[1]}
	return w, w.Validate()
}

// Click decodes map click data; null means no click yet
func (v Values) Click(id contracts.ControlID) (*contracts.ClickData, error) {
	raw, ok := v[id]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var click contracts.ClickData
	if err := json.Unmarshal(raw, &click); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrInvalidControl, id, err)
	}
	if _, err := click.Country(); err != nil {
		return nil, err
	}
	return &click, nil
}
