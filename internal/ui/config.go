package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/render"
)

func (a *App) configCmd() *cobra.Command {
	var initFile bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, the config file and
ROTA_* environment variables are merged.

With --init, writes the default configuration if no config file exists.

Example:
  rota config --init`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n\n", a.configPath)

			if initFile {
				created, err := initConfig(a.configPath)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(out, "%s\n\n", formatSuccess("Created "+a.configPath))
				} else {
					fmt.Fprintf(out, "%s\n\n", formatMuted("Config file already exists, left unchanged"))
				}
			}

			printConfig(out, a.config)
			return nil
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "Write the default config if none exists")
	return cmd
}

// initConfig writes the defaults to path unless a file is already there.
func initConfig(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file: %w", err)
	}
	if err := config.Default().SaveTo(path); err != nil {
		return false, fmt.Errorf("saving config: %w", err)
	}
	return true, nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out, "──────────────────────")
	fmt.Fprintln(out, "[working_hours]")
	fmt.Fprintf(out, "  enabled          = %t\n", cfg.WorkingHours.Enabled)
	fmt.Fprintf(out, "  start            = %s\n", cfg.WorkingHours.Start)
	fmt.Fprintf(out, "  end              = %s\n", cfg.WorkingHours.End)
	fmt.Fprintf(out, "  weekdays         = %s\n", strings.Join(cfg.WorkingHours.Weekdays, ", "))
	fmt.Fprintln(out, "\n[grid]")
	fmt.Fprintf(out, "  default_view     = %s\n", cfg.Grid.DefaultView)
	fmt.Fprintf(out, "  header_rows      = %d\n", cfg.Grid.HeaderRows)
	fmt.Fprintf(out, "  header_columns   = %d\n", cfg.Grid.HeaderColumns)
	fmt.Fprintf(out, "  slot_width_px    = %g\n", cfg.Grid.SlotWidthPx)
	fmt.Fprintf(out, "  snap_minutes     = %d\n", cfg.Grid.SnapMinutes)
	fmt.Fprintf(out, "  day_step_minutes = %d\n", cfg.Grid.DayStepMinutes)
	fmt.Fprintln(out, "\n[region]")
	fmt.Fprintf(out, "  timezone         = %s\n", cfg.Region.Timezone)
	fmt.Fprintln(out, "\n[storage]")
	fmt.Fprintf(out, "  db_path          = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(out, "\n[log]")
	fmt.Fprintf(out, "  level            = %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "  format           = %s\n", cfg.Log.Format)
	fmt.Fprintln(out, "\n[ui]")
	theme := cfg.UI.Theme
	if !render.IsAvailableTheme(theme) {
		theme += formatMuted(" (unknown, using " + render.DefaultTheme + ")")
	}
	fmt.Fprintf(out, "  theme            = %s\n", theme)
}
