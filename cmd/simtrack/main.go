package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/simtrack/internal/application"
	appscans "github.com/bryanwahyu/simtrack/internal/application/scans"
	"github.com/bryanwahyu/simtrack/internal/config"
	"github.com/bryanwahyu/simtrack/internal/controller"
	"github.com/bryanwahyu/simtrack/internal/dashboard"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	sqlitep "github.com/bryanwahyu/simtrack/internal/infra/db/sqlite"
	"github.com/bryanwahyu/simtrack/internal/infra/httpclient"
	"github.com/bryanwahyu/simtrack/internal/logger"
	"github.com/bryanwahyu/simtrack/internal/ui"
)

var (
	flagConfig  string
	flagLogFile string
	flagLocal  bool
	flagBell   bool
	flagCopy   bool
	flagDir    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simtrack",
		Short: "simtrack - SIM serial scanner and history dashboard",
		Long: `simtrack reads 20-character SIM serial barcodes from a keyboard-wedge
scanner, validates them and sends them to the history API.

The dashboard subcommand shows the shared history, lets the operator
select and delete entries, copy every code to the clipboard or save a CSV.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.yaml (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Append JSON logs to this file instead of the terminal")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Read codes from stdin, one per line; an empty line starts or advances",
		RunE:  runScan,
	}
	scanCmd.Flags().BoolVar(&flagLocal, "local", false, "Store into the local SQLite file instead of the API")
	scanCmd.Flags().BoolVar(&flagBell, "bell", false, "Ring the terminal bell on every accepted scan")

	dashCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive history dashboard",
		RunE:  runDashboard,
	}
	dashCmd.Flags().StringVar(&flagDir, "export-dir", "", "Directory for CSV exports")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Save the current history as scans_<date>.csv",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&flagDir, "export-dir", "", "Directory for the CSV file")
	exportCmd.Flags().BoolVar(&flagCopy, "copy", false, "Also copy every code to the clipboard (OSC 52)")

	rootCmd.AddCommand(scanCmd, dashCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and sets up logging. tui commands own the
// terminal, so their logs go to --log-file or are disabled.
func loadConfig(tui bool) (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = "config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	var logFile io.Writer
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		// dibiarkan terbuka sampai proses selesai
		logFile = f
	}
	logger.Init(logOptions(cfg, tui, logFile))
	return cfg, nil
}

func logOptions(cfg *config.Config, tui bool, logFile io.Writer) logger.Options {
	opt := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "simtrack"}
	switch {
	case logFile != nil:
		opt.Writer = logFile
		opt.Format = "json"
	case tui:
		opt.Level = "disabled"
	}
	return opt
}

func newClient(cfg *config.Config) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		BaseURL: cfg.Client.BaseURL,
		APIKey:  cfg.Client.APIKey,
		Timeout: cfg.Client.RequestTimeout,
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sub domain.Submitter = newClient(cfg)
	if flagLocal {
		db, err := sqlitep.Connect(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Storage.SQLitePath, err)
		}
		defer db.Close()
		repo := sqlitep.NewHistoryRepository(db, cfg.History.Cap)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		sub = &appscans.Service{
			Repo:       repo,
			Validator:  domain.Validator{StrictLength: cfg.StrictLength()},
			Clock:      application.SystemClock{},
			TimeFormat: cfg.History.TimeFormat,
			Location:   cfg.Location(),
		}
	}

	ctrl := controller.New(domain.Validator{StrictLength: cfg.StrictLength()}, sub)
	defer ctrl.Close()

	dec := controller.NewLineDecoder(os.Stdin)
	defer dec.Close()

	bell := flagBell || cfg.Client.Bell
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.StyleHelp.Render("press enter to start scanning, ctrl+d to quit"))

	err = ctrl.Run(ctx, dec, func(ev controller.Event) {
		if bell && ev.Kind == controller.EventAccepted {
			fmt.Fprint(out, "\a")
		}
		fmt.Fprintln(out, ui.RenderScanEvent(ev))
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	dir := flagDir
	if dir == "" {
		dir = cfg.Client.ExportDir
	}

	agg := dashboard.New(newClient(cfg), dashboard.OSC52Sink{}, cfg.Client.PollInterval)
	p := tea.NewProgram(
		ui.NewDashboard(agg, cfg.Client.PollInterval, dir),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	dir := flagDir
	if dir == "" {
		dir = cfg.Client.ExportDir
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.RequestTimeout)
	defer cancel()

	agg := dashboard.New(newClient(cfg), dashboard.OSC52Sink{}, cfg.Client.PollInterval)
	if err := agg.Poll(ctx); err != nil {
		return err
	}
	path, err := agg.SaveCSV(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d scans to %s\n", len(agg.Entries()), path)

	if flagCopy {
		n, err := agg.ExportAll()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "copied %d codes\n", n)
	}
	return nil
}
