package grade

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveParams writes p to path as indented JSON, one lowercase field per
// parameter. The file is readable by LoadParams and by hand.
func SaveParams(path string, p Params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("grade: save params: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // preset files are user data
		return fmt.Errorf("grade: save params: %w", err)
	}
	return nil
}

// LoadParams reads a preset file written by SaveParams. Fields absent from
// the file keep their DefaultParams value, so older presets load cleanly.
// Out-of-range values are clamped, not rejected.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path) //nolint:gosec // preset files are user data
	if err != nil {
		return Params{}, fmt.Errorf("grade: load params: %w", err)
	}
	p := DefaultParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("grade: load params: %w", err)
	}
	return p.Clamp(), nil
}
