package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"fsclean/cleaner"
	"fsclean/config"
	"fsclean/lock"
	"fsclean/logging"
	"fsclean/metrics"
	"fsclean/notifications"
	"fsclean/rule"
	"fsclean/scheduler"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply the retention rules once, or on the configured schedule",
	Long: `Apply the retention rules. All rules are validated before any file is
touched; with invalid_rules: abort (the default) a single bad rule stops the
run. When schedule is set the process stays up and runs on that cron
schedule until it receives SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the rules without running them",
	Args:  cobra.NoArgs,
	RunE:  checkRules,
}

// loadConfig reads the config file and applies the command line overrides.
// The default config file may be absent; one named with --config may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}
	if flags.rulesFile != "" {
		cfg.RulesFile = flags.rulesFile
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, cfg.Validate()
}

// loadRules reads and validates every rule. Rejected rules are logged when
// the policy lets the others through.
func loadRules(cfg *config.Config, logger zerolog.Logger) ([]rule.Rule, error) {
	recs, err := cfg.Records()
	if err != nil {
		return nil, err
	}
	rules, skipped, err := rule.ParseAll(recs, cfg.Policy())
	if err != nil {
		return nil, fmt.Errorf("configuration error, nothing was changed:\n%w", err)
	}
	for _, err := range skipped {
		logger.Error().Err(err).Msg("skipping invalid rule")
	}
	if flags.dryRun {
		for i := range rules {
			rules[i] = rules[i].DryRun()
		}
	}
	return rules, nil
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	l, err := lock.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer l.Release()

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New()
	}

	if cfg.Schedule == "" {
		return runOnce(cfg, rec)
	}

	// fail fast on a broken rule set instead of at the first tick
	if _, err := loadRules(cfg, log.Logger); err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.Schedule, log.Logger, func() {
		if err := runOnce(cfg, rec); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched.Run(ctx)
	return nil
}

// runOnce performs one complete run: validate every rule, apply them in
// order, sweep old logs, then report.
func runOnce(cfg *config.Config, rec *metrics.Recorder) error {
	now := time.Now()

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Dir: cfg.LogDir}, now)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	rules, err := loadRules(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("configuration check failed")
		return err
	}

	rc := cleaner.NewRunContext(now, cfg.LogDir, logger)
	rc.Metrics = rec
	rc.Progress = cfg.Progress

	summary := cleaner.Run(rc, rules)

	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error().Err(err).Str("path", cfg.MetricsFile).Msg("error writing metrics")
	}

	if cfg.DiscordURL != "" {
		host, _ := os.Hostname()
		message := fmt.Sprintf("fsclean on **`%s`** finished: %s\n", host, summary)
		if err := notifications.SendToDiscordWebhook(cfg.DiscordURL, []string{message}); err != nil {
			logger.Error().Err(err).Msg("error sending message to Discord")
		}
	}
	return nil
}

func checkRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rules, err := loadRules(cfg, log.Logger)
	if err != nil {
		return err
	}
	printRules(cmd.OutOrStdout(), rules)
	return nil
}

func printRules(out io.Writer, rules []rule.Rule) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMODE\tROOT\tSCOPE\tCONDITION\tDAYS\tACTION\tPRUNES")
	for i, r := range rules {
		condition := r.Condition
		if r.Scope == rule.ScopeAll || condition == "" {
			condition = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%t\n",
			i+1, r.Mode, r.Root, r.Scope, condition, r.Days, r.Action, r.PrunesEmptyDirs())
	}
	w.Flush()
	fmt.Fprintf(out, "%d valid rule(s)\n", len(rules))
}
