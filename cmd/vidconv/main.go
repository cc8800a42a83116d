package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/vidconv/internal/app"
	"github.com/handiism/vidconv/internal/config"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(os.Stderr, "Conversion cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every sub-command.
type globalFlags struct {
	configPath string
	verbose    bool
}

// credentialFlags fill model.Credentials.
type credentialFlags struct {
	username           string
	password           string
	cookiesFromBrowser string
	cookiesFile        string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "Account username")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
	cmd.Flags().StringVar(&f.cookiesFromBrowser, "cookies-from-browser", "", "Browser to load cookies from (e.g. firefox)")
	cmd.Flags().StringVar(&f.cookiesFile, "cookies", "", "Netscape cookies.txt file")
}

// credentials returns nil when no flag is set.
func (f *credentialFlags) credentials() *model.Credentials {
	creds := &model.Credentials{
		Username:           strings.TrimSpace(f.username),
		Password:           f.password,
		CookiesFromBrowser: strings.TrimSpace(f.cookiesFromBrowser),
		CookiesFile:        strings.TrimSpace(f.cookiesFile),
	}
	if creds.IsZero() {
		return nil
	}
	return creds
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "vidconv",
		Short:         "Convert video links to local MP3 or MP4 files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (JSON or YAML)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Show debug logs")

	root.AddCommand(newConvertCmd(flags))
	root.AddCommand(newRouteCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newDoctorCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

// settingsPath returns --config or the per-user default.
func settingsPath(flags *globalFlags) string {
	if flags.configPath != "" {
		return flags.configPath
	}
	return config.DefaultPath()
}

// loadSettings reads the config file. Without --config the per-user file is
// used when present.
func loadSettings(flags *globalFlags) (*config.Settings, error) {
	settings, err := config.Load(settingsPath(flags))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}

func loadApp(flags *globalFlags, settings *config.Settings) (*app.App, error) {
	return app.New(settings, app.NewLogger(os.Stderr, flags.verbose))
}

func newRouteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "route <url>",
		Short: "Show how a URL would be acquired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			settings.HistoryDBPath = ""
			a, err := loadApp(flags, settings)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.Route(args[0]), args[0])
			return nil
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			if settings.HistoryDBPath == "" {
				return errors.New("history is disabled (history_db_path is empty)")
			}
			a, err := loadApp(flags, settings)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.History.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversions yet.")
				return nil
			}
			for _, e := range entries {
				kind := "mp3"
				if e.IsVideo {
					kind = "mp4"
				}
				fmt.Fprintf(out, "%s  %s  %-40s  %s (%s)\n",
					e.CompletedAt.Local().Format("2006-01-02 15:04"),
					kind,
					e.Title,
					e.FilePath,
					formatSize(e.FileSizeBytes),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	creds := &credentialFlags{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			// The alt screen owns the terminal; keep logs out of it.
			a, err := app.New(settings, app.NewLogger(discardUnlessVerbose(flags.verbose), flags.verbose))
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(a.Controller, creds.credentials(), settings.DownloadsPath)
		},
	}
	creds.register(cmd)
	return cmd
}

func newDoctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that yt-dlp, ffmpeg and the output directory are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			settings.HistoryDBPath = ""
			a, err := loadApp(flags, settings)
			if err != nil {
				return err
			}
			defer a.Close()

			checks := a.Doctor()
			out := cmd.OutOrStdout()
			for _, c := range checks {
				mark := "ok  "
				if !c.OK {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", mark, c.Name, c.Message)
			}
			if !app.Healthy(checks) {
				return errors.New("doctor checks failed")
			}
			fmt.Fprintln(out, "doctor: all checks passed")
			return nil
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := settingsPath(flags)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultSettings().Save(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd, &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), settingsPath(flags))
		},
	})
	return cmd
}
