package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
)

// prefsCmd groups the stored view preferences.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage stored view preferences",
	Long: `Read and change the preferences the web front end keeps in the cache backend.

Subcommands:
  dark-mode - Show, set or toggle the theme`,
}

// prefsDarkModeCmd reads or changes the stored theme.
var prefsDarkModeCmd = &cobra.Command{
	Use:       "dark-mode [on|off|toggle]",
	Short:     "Show, set or toggle the dark mode preference",
	ValidArgs: []string{"on", "off", "toggle"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return sharedSetup(rootCtx, cmd, nil)
	},
	Run: func(_ *cobra.Command, args []string) {
		action := ""
		if len(args) == 1 {
			action = args[0]
		}
		enabled, err := core.UpdateDarkMode(core.Preferences(cfg, storeManager), action)
		if err != nil {
			contract.LogFatal("Failed to update dark mode", err)
		}
		state := "off"
		if enabled {
			state = "on"
		}
		fmt.Printf("Dark mode: %s\n", state)
	},
}
