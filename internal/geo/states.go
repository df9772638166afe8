package geo

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var defaultStatesYAML []byte

// State is a display record for one state FIPS code.
type State struct {
	Name         string `yaml:"name" json:"name"`
	Abbreviation string `yaml:"abbreviation" json:"abbreviation"`
}

// StateLookup maps two-digit state FIPS codes to state records.
type StateLookup map[string]State

type statesFile struct {
	States map[string]State `yaml:"states"`
}

// DefaultStates returns the built-in table of US states and territories.
func DefaultStates() (StateLookup, error) {
	return ParseStates(defaultStatesYAML)
}

// LoadStates reads a states table from a YAML file.
func LoadStates(path string) (StateLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read states %s", path)
	}
	return ParseStates(data)
}

// ParseStates decodes a states table. Keys are normalized to two digits.
func ParseStates(data []byte) (StateLookup, error) {
	var f statesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "geo: parse states")
	}
	out := make(StateLookup, len(f.States))
	for code, st := range f.States {
		key := NormalizeStateCode(code)
		if key == "" {
			return nil, eris.Errorf("geo: empty state code for %q", st.Name)
		}
		out[key] = st
	}
	return out, nil
}

// Name returns the display name for a state code.
func (s StateLookup) Name(code string) (string, bool) {
	st, ok := s[NormalizeStateCode(code)]
	if !ok {
		return "", false
	}
	return st.Name, true
}

// NormalizeStateCode zero-pads a state FIPS code to 2 digits.
func NormalizeStateCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}
