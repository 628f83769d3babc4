package main

import (
	"fmt"
	"os"

	"fsclean/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version string = "unknown"
	commit  string = "unknown"
	date    string = "unknown"
)

func init() {
	if v := os.Getenv("FSCLEAN_VERSION"); v != "" {
		version = v
	}
	if c := os.Getenv("FSCLEAN_COMMIT"); c != "" {
		commit = c
	}
	if d := os.Getenv("FSCLEAN_DATE"); d != "" {
		date = d
	}
}

func PrintVersion() {
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	fmt.Printf("fsclean v%s %s %s\n", version, short, date)
}

var flags struct {
	configFile string
	rulesFile  string
	logLevel   string
	dryRun     bool
}

var rootCmd = &cobra.Command{
	Use:   "fsclean",
	Short: "Delete, empty or compress old files by declarative retention rules",
	Long: `fsclean applies retention rules to directory trees. Each rule names a
directory, a file age in days, a name filter and an action:

  MODE:ROOT:SCOPE:CONDITION:DAYS:ACTION
  RUN:/data/app:SPECIFIC:tmp_:30:DELETE
  DEBUG:/var/log/app:ALL::7:COMPRESS

MODE is RUN or DEBUG (log only), SCOPE is ALL or SPECIFIC (CONDITION is a
file name prefix, optionally followed by ",substring"), ACTION is DELETE,
NULLIFY (truncate to zero bytes) or COMPRESS (gzip, then remove the original).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "fsclean.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&flags.rulesFile, "rules", "r", "", "path to rules file (overrides rules_file)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides log_level)")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "treat every rule as DEBUG")

	rootCmd.AddCommand(runCmd, checkCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		PrintVersion()
	},
}

func main() {
	log.Logger = log.Output(logging.Console(os.Stderr, false)).With().Logger()

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("fsclean failed")
		os.Exit(1)
	}
}
