package watchlist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Watchlist is the set of datasets refreshed by the scheduler
// ⭐ SSOT: scheduled datasets are declared in the watchlist file only
type Watchlist struct {
	Datasets []Dataset `yaml:"datasets" json:"datasets"`
}

// Dataset is one watchlist entry. Empty fields fall back to the configured defaults.
type Dataset struct {
	Database     string `yaml:"database" json:"database"`
	Ticker       string `yaml:"ticker" json:"ticker"`
	LookbackDays int    `yaml:"lookback_days,omitempty" json:"lookback_days,omitempty"`
	Format       string `yaml:"format,omitempty" json:"format,omitempty"`
}

// ValidationError reports the first invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// Load reads and validates a YAML watchlist. Unknown fields are rejected.
func Load(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates watchlist YAML
func Parse(data []byte) (*Watchlist, error) {
	var wl Watchlist
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wl); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}

	if err := Validate(&wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

// Validate checks every entry and rejects duplicates
func Validate(wl *Watchlist) error {
	if len(wl.Datasets) == 0 {
		return ValidationError{"datasets", "at least one dataset is required"}
	}

	seen := make(map[string]bool, len(wl.Datasets))
	for i, d := range wl.Datasets {
		field := fmt.Sprintf("datasets[%d]", i)

		if !codePattern.MatchString(d.Database) {
			return ValidationError{field + ".database", fmt.Sprintf("invalid code %q", d.Database)}
		}
		if !codePattern.MatchString(d.Ticker) {
			return ValidationError{field + ".ticker", fmt.Sprintf("invalid code %q", d.Ticker)}
		}
		if d.LookbackDays < 0 {
			return ValidationError{field + ".lookback_days", "must be >= 0"}
		}
		switch d.Format {
		case "", "json", "csv":
		default:
			return ValidationError{field + ".format", fmt.Sprintf("invalid format %q (valid: json, csv)", d.Format)}
		}

		key := d.Database + "/" + d.Ticker
		if seen[key] {
			return ValidationError{field, fmt.Sprintf("duplicate dataset %s", key)}
		}
		seen[key] = true
	}
	return nil
}

// Hash returns the SHA256 of the canonical JSON form, for logging which list a run used
func Hash(wl *Watchlist) (string, error) {
	data, err := json.Marshal(wl)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
