package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/shortscroll/internal/utils"
	"github.com/sw33tLie/shortscroll/pkg/control"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
	"github.com/sw33tLie/shortscroll/pkg/whttp"
)

var ctlCmd = &cobra.Command{
	Use:   "ctl <platform> <start|stop|update>",
	Short: "Send a control message to the running shortscroll",
	Example: `  shortscroll ctl tiktok start
  shortscroll ctl youtube update --detect-video-end=false --interval 15
  shortscroll ctl instagram update --scroll-after 20`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := platforms.Parse(args[0])
		if err != nil {
			return err
		}
		action, err := control.ParseAction(args[1])
		if err != nil {
			return err
		}

		msg := control.Message{Platform: id, Action: action}
		if cmd.Flags().Changed("interval") {
			v, _ := cmd.Flags().GetInt("interval")
			msg.Override.IntervalSeconds = settings.Int(v)
		}
		if cmd.Flags().Changed("detect-video-end") {
			v, _ := cmd.Flags().GetBool("detect-video-end")
			msg.Override.DetectVideoEnd = settings.Bool(v)
		}
		if cmd.Flags().Changed("scroll-after") {
			v, _ := cmd.Flags().GetInt("scroll-after")
			msg.Override.ScrollAfterSeconds = settings.Int(v)
		}

		n, err := notify(cmdContext(cmd), cmd, msg)
		if err != nil {
			return err
		}
		fmt.Printf("%s delivered to %d tab(s)\n", msg, n)
		return nil
	},
}

// notify sends msg to the control server named by --server or server.listen.
func notify(ctx context.Context, cmd *cobra.Command, msg control.Message) (int, error) {
	addr, _ := cmd.Flags().GetString("server")
	if addr == "" {
		addr = viper.GetString("server.listen")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	utils.Log.Debugf("Sending %s to %s", msg, addr)
	return whttp.SendControl(ctx, whttp.NewClient(3), whttp.Target{
		BaseURL:  whttp.BaseURLFor(addr),
		Username: viper.GetString("server.username"),
		Password: viper.GetString("server.password"),
	}, msg)
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.Flags().Int("interval", 0, "Override the advance interval in seconds (ignored while detecting video end)")
	ctlCmd.Flags().Bool("detect-video-end", true, "Override video-end detection")
	ctlCmd.Flags().Int("scroll-after", 0, "Override the per-item timer in seconds (0 disables it)")
}
