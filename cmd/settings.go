package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change the stored per-platform settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show [platform]",
	Short: "Print the effective settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := platforms.All
		if len(args) == 1 {
			id, err := platforms.Parse(args[0])
			if err != nil {
				return err
			}
			ids = []platforms.ID{id}
		}

		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := cmdContext(cmd)

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			var only platforms.ID
			if len(ids) == 1 {
				only = ids[0]
			}
			rows, err := db.ListSettings(ctx, only)
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Printf("%s  %-32s %s\n", r.UpdatedAt.Local().Format("2006-01-02 15:04:05"), r.Key, r.Value)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PLATFORM\tENABLED\tINTERVAL\tDETECT END\tSCROLL AFTER\tSTRATEGY\t")
		for _, id := range ids {
			s, err := db.LoadSettings(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%t\t%ds\t%t\t%ds\t%s\t\n", id, s.Enabled, s.IntervalSeconds, s.DetectVideoEnd, s.ScrollAfterSeconds, s.Strategy())
		}
		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <platform> <field> <value>",
	Short: "Store one field (toggle, interval, detect-video-end, scroll-after-seconds)",
	Example: `  shortscroll settings set tiktok toggle on --notify
  shortscroll settings set youtube detect-video-end false
  shortscroll settings set instagram scroll-after-seconds 20 --notify`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := platforms.Parse(args[0])
		if err != nil {
			return err
		}
		field, err := settings.ParseField(args[1])
		if err != nil {
			return err
		}
		value, err := parseFieldValue(field, args[2])
		if err != nil {
			return err
		}

		db, dbPath, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := cmdContext(cmd)

		if err := withDBLock(dbPath, func() error {
			return db.SaveField(ctx, id, field, value)
		}); err != nil {
			return err
		}
		fmt.Printf("%s = %v\n", settings.Key(id, field), value)

		if notifyFlag, _ := cmd.Flags().GetBool("notify"); !notifyFlag {
			return nil
		}
		current, err := db.LoadSettings(ctx, id)
		if err != nil {
			return err
		}
		msg := changeMessage(id, field, current)
		n, err := notify(ctx, cmd, msg)
		if err != nil {
			return err
		}
		fmt.Printf("%s delivered to %d tab(s)\n", msg, n)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite every platform with the install defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, dbPath, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := withDBLock(dbPath, func() error {
			return db.Install(cmdContext(cmd), true)
		}); err != nil {
			return err
		}
		fmt.Println("Settings reset to defaults.")
		return nil
	},
}

// parseFieldValue converts a command-line value to the JSON scalar type
// stored for field.
func parseFieldValue(field settings.Field, raw string) (any, error) {
	switch field {
	case settings.Toggle, settings.DetectVideoEnd:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s wants a boolean, got %q", field, raw)
		}
		return b, nil
	default:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s wants a non-negative number of seconds, got %q", field, raw)
		}
		return n, nil
	}
}

// changeMessage is what a running session is told after field changed. The
// toggle maps to start/stop; anything else resends the tunable fields, with
// the interval only when video-end detection is off.
func changeMessage(id platforms.ID, field settings.Field, s settings.Settings) control.Message {
	if field == settings.Toggle {
		action := control.Stop
		if s.Enabled {
			action = control.Start
		}
		return control.Message{Platform: id, Action: action}
	}
	o := settings.Override{
		DetectVideoEnd:     settings.Bool(s.DetectVideoEnd),
		ScrollAfterSeconds: settings.Int(s.ScrollAfterSeconds),
	}
	if !s.DetectVideoEnd {
		o.IntervalSeconds = settings.Int(s.IntervalSeconds)
	}
	return control.Message{Platform: id, Action: control.Update, Override: o}
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)
	settingsShowCmd.Flags().Bool("raw", false, "Print the stored keys and JSON values")
	settingsSetCmd.Flags().Bool("notify", false, "Tell the running shortscroll about the change")
}
