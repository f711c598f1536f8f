package grade

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadParams_RoundTrip(t *testing.T) {
	p := Params{
		Exposure: 1.2, Contrast: -0.3, Temperature: 7200, Tint: -15,
		Highlights: -0.6, Shadows: 0.4, Whites: 0.2, Blacks: -0.1,
		Saturation: 0.35,
	}
	path := filepath.Join(t.TempDir(), "grade.json")

	if err := SaveParams(path, p); err != nil {
		t.Fatalf("SaveParams() = %v", err)
	}
	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() = %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveParams_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grade.json")
	if err := SaveParams(path, DefaultParams()); err != nil {
		t.Fatalf("SaveParams() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	// Indented JSON with lowercase keys and a trailing newline, so presets
	// diff cleanly and edit by hand.
	if !strings.HasSuffix(s, "}\n") {
		t.Errorf("preset file should end with newline, got %q", s[len(s)-2:])
	}
	for _, key := range []string{
		`"exposure"`, `"contrast"`, `"temperature"`, `"tint"`,
		`"highlights"`, `"shadows"`, `"whites"`, `"blacks"`, `"saturation"`,
	} {
		if !strings.Contains(s, key) {
			t.Errorf("preset file missing key %s", key)
		}
	}
	if !strings.Contains(s, `"temperature": 5500`) {
		t.Errorf("preset file should record the default temperature, got:\n%s", s)
	}
}

func TestLoadParams_PartialFileKeepsDefaults(t *testing.T) {
	// Older presets may omit newer fields; absent fields keep their
	// DefaultParams value instead of zeroing.
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"exposure": 1.5}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() = %v", err)
	}
	want := DefaultParams()
	want.Exposure = 1.5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partial load mismatch (-want +got):\n%s", diff)
	}
	if got.Temperature != ReferenceTemperature {
		t.Errorf("Temperature = %v, want reference %v", got.Temperature, ReferenceTemperature)
	}
}

func TestLoadParams_ClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wild.json")
	content := `{"exposure": 99, "temperature": 100, "saturation": -42}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() = %v", err)
	}
	if got.Exposure != MaxExposure {
		t.Errorf("Exposure = %v, want clamped %v", got.Exposure, float32(MaxExposure))
	}
	if got.Temperature != MinTemperature {
		t.Errorf("Temperature = %v, want clamped %v", got.Temperature, float32(MinTemperature))
	}
	if got.Saturation != MinSaturation {
		t.Errorf("Saturation = %v, want clamped %v", got.Saturation, float32(MinSaturation))
	}
}

func TestLoadParams_MissingFile(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("LoadParams(missing file) = nil error, want error")
	}
}

func TestLoadParams_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadParams(path); err == nil {
		t.Fatal("LoadParams(corrupt file) = nil error, want error")
	}
}

func TestSaveParams_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "grade.json")
	if err := SaveParams(path, DefaultParams()); err == nil {
		t.Fatal("SaveParams(unwritable path) = nil error, want error")
	}
}
