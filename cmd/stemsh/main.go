package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"stemshell"
	"stemshell/audit"
)

const appName = "stemsh"

//go:embed banner.txt
var banner string

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	cfgFile   string
	debug     bool
	noBanner  bool
	noHistory bool

	rootCmd = &cobra.Command{
		Use:   appName + " [args...]",
		Short: "An interactive demo shell",
		Long: TitleStyle.Render(appName) + SubtitleStyle.Render(" - an interactive demo shell") + `

Reads commands from the terminal until end of input (Ctrl-D).
Type "help" at the prompt to list commands.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}
)

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/."+appName+"/config.yaml)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log every dispatched command")
	rootCmd.Flags().BoolVar(&noBanner, "no-banner", false, "do not print the startup banner")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the history file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func runShell(_ *cobra.Command, args []string) error {
	cfg, err := stemshell.LoadConfig(appName, cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if noBanner {
		cfg.Banner = false
	}
	if noHistory {
		cfg.History = false
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	a := &app{}
	sh := stemshell.NewShell(a)
	sh.Config = cfg
	sh.Logger.SetLevel(level)
	sh.Metadata = stemshell.BuildMetadata(buildOverrides())
	sh.Banner = strings.NewReader(banner)
	a.shell = sh

	if cfg.Audit {
		path := cfg.AuditFile
		if path == "" {
			if path, err = audit.DefaultPath(appName); err != nil {
				return err
			}
		}
		l, err := audit.Open(path)
		if err != nil {
			return err
		}
		a.audit = l
		sh.Recorder = l
	}

	return sh.Run(args)
}

// buildOverrides returns the ldflags values that were actually set.
func buildOverrides() map[string]string {
	overrides := make(map[string]string)
	if Version != "dev" {
		overrides["build.version"] = Version
	}
	if Commit != "unknown" {
		overrides["build.commit"] = Commit
	}
	if BuildDate != "unknown" {
		overrides["build.date"] = BuildDate
	}
	return overrides
}
