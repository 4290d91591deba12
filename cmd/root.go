package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/shortscroll/internal/utils"
	"github.com/sw33tLie/shortscroll/pkg/storage"
)

var cfgFile string

const (
	LOGO = `	     _                _                      _ _ 
	 ___| |__   ___  _ __| |_ ___  ___ _ __ ___ | | |
	/ __| '_ \ / _ \| '__| __/ __|/ __| '__/ _ \| | |
	\__ \ | | | (_) | |  | |_\__ \ (__| | | (_) | | |
	|___/_| |_|\___/|_|   \__|___/\___|_|  \___/|_|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shortscroll",
	Short: "Hands-free scrolling for short-form video feeds.",
	Long: LOGO + `shortscroll drives a browser through YouTube Shorts, Instagram Reels, Facebook Reels and TikTok,
advancing to the next item when the current video ends or on a timer.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shortscroll.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/shortscroll/shortscroll.sqlite)")
	rootCmd.PersistentFlags().String("server", "", "Control server address (default from server.listen)")
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".shortscroll")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("shortscroll")
	viper.AutomaticEnv()

	viper.SetDefault("browser.driver", "chromedp")
	viper.SetDefault("browser.headless", false)
	viper.SetDefault("browser.remote", "")
	viper.SetDefault("browser.userdatadir", "")
	viper.SetDefault("server.listen", "127.0.0.1:7878")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("db.path", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".shortscroll.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}
}

// openDB opens the settings database named by db.path.
func openDB() (*storage.DB, string, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database %s: %w", dbPath, err)
	}
	return db, dbPath, nil
}

// withDBLock runs fn with the database write lock held.
func withDBLock(dbPath string, fn func() error) error {
	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
