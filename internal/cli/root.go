package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/lawai/internal/model"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lawai",
	Short: "LawAI - legal query triage and case records for police stations",
	Long: `LawAI sends a free-text description of an incident to the LawAI
inference service, shows the statute sections it considers applicable,
and turns the answer into a case record you can review, tag and save.

It also browses the case database, the bare-act catalog and the
downloadable act documents.

LawAI suggests sections; it does not give legal advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		// keep stderr readable for humans unless asked otherwise
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lawai v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.lawai/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringP("format", "o", "text", "output format (text, json, yaml)")
	flags.String("base-url", "", "case and inference service URL")
	flags.String("catalog-url", "", "bare-act catalog URL")
	flags.Bool("no-cache", false, "disable the inference response cache")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("output.format", flags.Lookup("format"))
	_ = viper.BindPFlag("backend.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("backend.catalog_url", flags.Lookup("catalog-url"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) && verbose {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".lawai"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match LAWAI_*, e.g. LAWAI_BACKEND_BASE_URL
	viper.SetEnvPrefix("LAWAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("inference.api_key", "LAWAI_INFERENCE_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env overrides reach Unmarshal
func setDefaults(cfg *model.Config) {
	defaults := map[string]any{
		"backend.base_url":                  cfg.Backend.BaseURL,
		"backend.catalog_url":               cfg.Backend.CatalogURL,
		"backend.inference_path":            cfg.Backend.InferencePath,
		"backend.case_save_path":            cfg.Backend.CaseSavePath,
		"backend.case_list_path":            cfg.Backend.CaseListPath,
		"backend.reject_empty_query":        cfg.Backend.RejectEmptyQuery,
		"inference.provider":                cfg.Inference.Provider,
		"inference.model":                   cfg.Inference.Model,
		"inference.base_url":                cfg.Inference.BaseURL,
		"inference.max_tokens":              cfg.Inference.MaxTokens,
		"http.timeout":                      cfg.HTTP.Timeout,
		"http.user_agent":                   cfg.HTTP.UserAgent,
		"http.max_body_bytes":               cfg.HTTP.MaxBodyBytes,
		"http.http_proxy":                   cfg.HTTP.HTTPProxy,
		"http.https_proxy":                  cfg.HTTP.HTTPSProxy,
		"cache.enabled":                     cfg.Cache.Enabled,
		"cache.memory_ttl":                  cfg.Cache.MemoryTTL,
		"cache.disk_ttl":                    cfg.Cache.DiskTTL,
		"cache.dir":                         cfg.Cache.Dir,
		"rate_limiting.requests_per_second": cfg.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":          cfg.RateLimiting.BurstSize,
		"concurrency.workers":               cfg.Concurrency.Workers,
		"normalize.strip_markup":            cfg.Normalize.StripMarkup,
		"output.format":                     cfg.Output.Format,
		"output.verbose":                    cfg.Output.Verbose,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// loadConfig resolves defaults, config file, env and flags into a Config
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	if cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(home, ".lawai", cfg.Cache.Dir)
		}
	}

	switch cfg.Output.Format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown output format: %s (supported: text, json, yaml)", cfg.Output.Format)
	}

	return cfg, nil
}
