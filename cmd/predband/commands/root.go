package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"predband/internal/config"
	"predband/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	dataPath   string
	targetPath string
	outPath    string
	response   string
	covariates []string
	familyName string
	linkName   string
	theta      float64
	alpha      float64
	draws      int
	seed       uint64
	workers    int
)

var rootCmd = &cobra.Command{
	Use:   "predband",
	Short: "predband augments model predictions with uncertainty bands",
	Long: `Fits a generalized linear model on tabular data and appends confidence
intervals, prediction intervals, response probabilities, or response
quantiles to a table of target rows, using closed-form Wald bands where
they exist and parametric-bootstrap simulation elsewhere.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		// Flags win; unset flags fall back to the environment config.
		if !cmd.Flags().Changed("alpha") {
			alpha = cfg.Alpha
		}
		if !cmd.Flags().Changed("draws") {
			draws = cfg.Draws
		}
		if !cmd.Flags().Changed("seed") {
			seed = cfg.Seed
		}
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Workers
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("predband starting")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "training data CSV (required)")
	rootCmd.PersistentFlags().StringVar(&targetPath, "target", "", "target rows CSV (defaults to the training data)")
	rootCmd.PersistentFlags().StringVar(&outPath, "out", "", "output CSV path (defaults to stdout)")
	rootCmd.PersistentFlags().StringVar(&response, "response", "", "response column name (required)")
	rootCmd.PersistentFlags().StringSliceVar(&covariates, "covariates", nil, "covariate column names (required)")
	rootCmd.PersistentFlags().StringVar(&familyName, "family", "gaussian", "model family (gaussian, poisson, quasipoisson, gamma, negbinom, binomial)")
	rootCmd.PersistentFlags().StringVar(&linkName, "link", "", "link function (defaults to the family's canonical link)")
	rootCmd.PersistentFlags().Float64Var(&theta, "theta", 0, "negative binomial size parameter")
	rootCmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.05, "significance level")
	rootCmd.PersistentFlags().IntVar(&draws, "draws", 0, "simulation draw or bootstrap replicate count (0 = per-command default)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (0 = time-seeded)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent bootstrap refits (0 = one per CPU)")
}
