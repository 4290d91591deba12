package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/shortscroll/internal/utils"
	"github.com/sw33tLie/shortscroll/pkg/advance"
	"github.com/sw33tLie/shortscroll/pkg/dom/htmldoc"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/platforms/profiles"
	"github.com/sw33tLie/shortscroll/pkg/sensor"
)

var probeCmd = &cobra.Command{
	Use:   "probe <snapshot.html>",
	Short: "Dry-run a platform's advance chain and video-end sensor on a saved page",
	Long: `Loads an HTML snapshot and reports which advance step would fire and whether
the visible video counts as ended. Geometry and media state are read from data
attributes (data-path, data-viewport, data-rect, data-current-time, data-duration,
data-ended, data-ratio). Nothing is clicked: actions are only printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		platformName, _ := cmd.Flags().GetString("platform")
		pageURL, _ := cmd.Flags().GetString("url")

		var (
			profile platforms.Profile
			err     error
		)
		switch {
		case platformName != "":
			id, perr := platforms.Parse(platformName)
			if perr != nil {
				return perr
			}
			profile, err = profiles.For(id)
		case pageURL != "":
			profile, err = profiles.ForURL(pageURL)
		default:
			return fmt.Errorf("one of --platform or --url is required")
		}
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := htmldoc.Parse(f)
		if err != nil {
			return err
		}

		res := probeSnapshot(cmdContext(cmd), doc, profile)
		fmt.Printf("platform: %s\n", profile.ID)
		fmt.Printf("path:     %s\n", res.Path)
		fmt.Printf("route:    %s\n", orDash(res.Outcome.Route))
		if res.Outcome.Fallback {
			fmt.Println("step:     none matched, fallback scroll")
		} else {
			fmt.Printf("step:     %s\n", res.Outcome.Step)
		}
		for _, a := range res.Actions {
			fmt.Printf("  -> %s\n", a)
		}
		fmt.Printf("ended:    %t\n", res.Ended)
		return nil
	},
}

type probeResult struct {
	Path    string
	Outcome advance.Outcome
	Actions []string
	Ended   bool
}

func probeSnapshot(ctx context.Context, doc *htmldoc.Document, profile platforms.Profile) probeResult {
	var res probeResult
	res.Path, _ = doc.Path(ctx)

	res.Ended = sensor.New(sensor.Config{
		Ctx:     ctx,
		Doc:     doc,
		Profile: profile,
		Log:     utils.Log,
	}).Check(ctx)

	res.Outcome = advance.New(advance.Config{
		Doc:     doc,
		Profile: profile,
		Log:     utils.Log,
		Sleep:   func(context.Context, time.Duration) error { return nil },
	}).Execute(ctx)
	res.Actions = doc.Actions()
	return res
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringP("platform", "p", "", "Platform whose rules to apply")
	probeCmd.Flags().StringP("url", "u", "", "Page URL, to pick the platform from")
}
