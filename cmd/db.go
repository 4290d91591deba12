package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/shortscroll/internal/utils"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the shortscroll database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
		if err != nil {
			return err
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how many items were advanced per platform.",
	Long:  "Prints how many items were advanced per platform, and how many of those needed the fallback scroll.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmdContext(cmd))
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("Nothing advanced yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PLATFORM\tADVANCES\tFALLBACKS\tLAST\t")

		var totalAdvances, totalFallbacks int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t\n", s.Platform, s.Advances, s.Fallbacks, s.LastAt.Local().Format("2006-01-02 15:04:05"))
			totalAdvances += s.Advances
			totalFallbacks += s.Fallbacks
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t \t\n", totalAdvances, totalFallbacks)

		return w.Flush()
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent advances (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		platform, _ := cmd.Flags().GetString("platform")
		if platform != "" && platform != "all" {
			id, err := platforms.Parse(platform)
			if err != nil {
				return err
			}
			platform = string(id)
		}

		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		events, err := db.ListRecentEvents(cmdContext(cmd), platform, limit)
		if err != nil {
			return err
		}
		for _, e := range events {
			ts := e.OccurredAt.Local().Format("2006-01-02 15:04:05")
			via := e.Step
			if e.Fallback {
				via = "fallback scroll"
			}
			fmt.Printf("%s  %-9s  %-12s  %-8s  %s\n", ts, e.Platform, e.Strategy, orDash(e.Route), via)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd, statsCmd, eventsCmd)
	dbCmd.AddCommand(shellCmd)
	eventsCmd.Flags().Int("limit", 50, "Number of recent advances to show")
	eventsCmd.Flags().StringP("platform", "p", "all", "Only show one platform")
}
