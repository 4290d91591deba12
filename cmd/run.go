package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/shortscroll/internal/server"
	"github.com/sw33tLie/shortscroll/internal/utils"
	"github.com/sw33tLie/shortscroll/pkg/browser"
	"github.com/sw33tLie/shortscroll/pkg/logging"
	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/runner"
	"github.com/sw33tLie/shortscroll/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Open the feeds in a browser and scroll them",
	Long: `Opens one tab per platform (and per extra URL) and keeps a session on every tab
that shows a supported site. Sessions follow the settings stored in the database
and the messages sent with "shortscroll ctl".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("platform")
		noServer, _ := cmd.Flags().GetBool("no-server")

		var ids []platforms.ID
		for _, n := range names {
			id, err := platforms.Parse(n)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 && len(args) == 0 {
			ids = platforms.All
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		driver, err := browser.New(ctx, viper.GetString("browser.driver"), browser.Options{
			Headless:    viper.GetBool("browser.headless"),
			Remote:      viper.GetString("browser.remote"),
			UserDataDir: viper.GetString("browser.userdatadir"),
			Log:         utils.Log,
		})
		if err != nil {
			return err
		}
		defer driver.Close()

		hub := session.NewHub()
		r := runner.New(runner.Config{
			Driver:    driver,
			Platforms: ids,
			URLs:      args,
			Hub:       hub,
			Store:     db,
			Recorder:  db,
			Log:       utils.Log,
			TabLog: func(tabID string, id platforms.ID) logging.Logger {
				return utils.TabLogger(tabID, id)
			},
		})

		errc := make(chan error, 1)
		if !noServer {
			srv := server.New(hub, db, viper.GetString("server.username"), viper.GetString("server.password"))
			srv.Log = utils.Log
			go func() {
				if err := srv.Start(ctx, viper.GetString("server.listen")); err != nil {
					errc <- fmt.Errorf("control server: %w", err)
					stop()
				}
			}()
		}

		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		select {
		case err := <-errc:
			return err
		default:
		}
		utils.Log.Info("Bye")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("platform", "p", nil, "Platforms to open (default: all, unless URLs are given)")
	runCmd.Flags().String("driver", "chromedp", "Browser driver: chromedp or playwright")
	runCmd.Flags().Bool("headless", false, "Run the browser headless")
	runCmd.Flags().String("remote", "", "DevTools websocket URL of an already running browser")
	runCmd.Flags().String("user-data-dir", "", "Browser profile directory, to keep logins between runs")
	runCmd.Flags().String("listen", "127.0.0.1:7878", "Control server listen address")
	runCmd.Flags().Bool("no-server", false, "Do not start the control server")

	viper.BindPFlag("browser.driver", runCmd.Flags().Lookup("driver"))
	viper.BindPFlag("browser.headless", runCmd.Flags().Lookup("headless"))
	viper.BindPFlag("browser.remote", runCmd.Flags().Lookup("remote"))
	viper.BindPFlag("browser.userdatadir", runCmd.Flags().Lookup("user-data-dir"))
	viper.BindPFlag("server.listen", runCmd.Flags().Lookup("listen"))
}
