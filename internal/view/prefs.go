package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/repopulse/internal/contract"
)

// DarkModeKey is the preference key of the theme flag.
const DarkModeKey = "darkMode"

// ParseDarkMode reads an explicit theme value: on/true/yes/1 or off/false/no/0, case-insensitive.
func ParseDarkMode(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid dark mode value %q. must be on, off, true, false, yes, no", value)
	}
}

// Preferences persists view preferences through a PrefStore.
type Preferences struct {
	store           contract.PrefStore
	darkModeDefault bool
}

// NewPreferences creates preferences over store. darkModeDefault applies while nothing is stored.
// A nil store keeps nothing and always reports the default.
func NewPreferences(store contract.PrefStore, darkModeDefault bool) *Preferences {
	return &Preferences{store: store, darkModeDefault: darkModeDefault}
}

// DarkMode returns the stored theme flag or the default.
func (p *Preferences) DarkMode() (bool, error) {
	if p.store == nil {
		return p.darkModeDefault, nil
	}
	raw, ok, err := p.store.GetPref(DarkModeKey)
	if err != nil {
		return p.darkModeDefault, fmt.Errorf("read %s preference: %w", DarkModeKey, err)
	}
	if !ok {
		return p.darkModeDefault, nil
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return p.darkModeDefault, fmt.Errorf("decode %s preference: %w", DarkModeKey, err)
	}
	return enabled, nil
}

// SetDarkMode stores the theme flag as a JSON boolean.
func (p *Preferences) SetDarkMode(enabled bool) error {
	if p.store == nil {
		return nil
	}
	raw, _ := json.Marshal(enabled)
	if err := p.store.SetPref(DarkModeKey, raw); err != nil {
		return fmt.Errorf("write %s preference: %w", DarkModeKey, err)
	}
	return nil
}

// Load returns s with the stored theme applied.
func (p *Preferences) Load(s State) (State, error) {
	enabled, err := p.DarkMode()
	return Reduce(s, DarkModeSet{Enabled: enabled}), err
}

// Apply reduces e and persists the theme when e changes it.
func (p *Preferences) Apply(s State, e Event) (State, error) {
	next := Reduce(s, e)
	if next.DarkMode != s.DarkMode {
		if err := p.SetDarkMode(next.DarkMode); err != nil {
			return next, err
		}
	}
	return next, nil
}
