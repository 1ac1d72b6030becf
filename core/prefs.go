package core

import (
	"fmt"
	"strings"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/view"
)

// Preferences returns the view preferences backed by the preference store of mgr.
func Preferences(cfg *contract.Config, mgr contract.StoreManager) *view.Preferences {
	var kv contract.KVStore
	if mgr != nil {
		kv = mgr.GetPrefStore()
	}
	return view.NewPreferences(iocache.NewPrefStore(kv), cfg.DarkModeDefault)
}

// UpdateDarkMode applies action ("on", "off", "toggle" or "" to only read) to
// the stored theme and returns the resulting value.
func UpdateDarkMode(prefs *view.Preferences, action string) (bool, error) {
	state, err := prefs.Load(view.State{})
	if err != nil {
		return state.DarkMode, err
	}

	var event view.Event
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "":
		return state.DarkMode, nil
	case "toggle":
		event = view.DarkModeToggled{}
	default:
		enabled, err := view.ParseDarkMode(action)
		if err != nil {
			return state.DarkMode, fmt.Errorf("invalid dark mode action %q. must be on, off, toggle", action)
		}
		event = view.DarkModeSet{Enabled: enabled}
	}

	next, err := prefs.Apply(state, event)
	return next.DarkMode, err
}
