package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vnquery/internal/agent"
	"vnquery/internal/config"
	"vnquery/internal/llm"
	"vnquery/internal/logging"
	"vnquery/internal/market"
	"vnquery/internal/trace"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Service *market.Service
	Agent   *agent.Agent

	traceStore *trace.Store
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	provider := market.NewTCBSProvider(
		market.WithBaseURL(cfg.Market.BaseURL),
		market.WithTimeout(cfg.Market.RequestTimeout),
	)
	app.Service = market.NewService(provider, market.ServiceConfig{
		CacheCapacity: cfg.Market.CacheCapacity,
		FetchWorkers:  cfg.Market.FetchWorkers,
	}, logger)

	var client llm.Client
	if cfg.LLMReady() {
		client = llm.NewOpenAIClient(cfg.Credentials.OpenAI.APIKey, cfg.LLM.Model,
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
		)
		logger.Debug().Str("model", cfg.LLM.Model).Msg("OpenAI client initialized")
	}

	agentOpts := []agent.Option{}
	if cfg.Trace.Enabled {
		agentOpts = append(agentOpts, agent.WithTraceDir(cfg.Trace.Dir))
		store, err := trace.NewStore(cfg.Trace.DBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("trace store unavailable")
		} else {
			app.traceStore = store
			agentOpts = append(agentOpts, agent.WithTraceStore(store))
		}
	}
	app.Agent = agent.New(app.Service, client, logger, agentOpts...)

	rootCmd := &cobra.Command{
		Use:   "vnquery",
		Short: "vnquery - hỏi đáp dữ liệu chứng khoán Việt Nam",
		Long: `vnquery answers natural-language questions about Vietnamese equities.

It resolves the question into a data action (price history, indicators,
comparisons, company information), fetches candles from TCBS and composes a
Vietnamese answer.

Use 'vnquery ask "<câu hỏi>"' for one-shot questions or 'vnquery serve' to
expose the pipeline over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/vnquery)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newAskCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))

	return rootCmd
}

// Close releases background resources.
func (a *App) Close() {
	if a.Service != nil {
		a.Service.Close()
	}
	if a.traceStore != nil {
		if err := a.traceStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("trace store close failed")
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("vnquery v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Market Configuration")
	output.Printf("  Base URL:        %s\n", cfg.Market.BaseURL)
	output.Printf("  Timeout:         %s\n", cfg.Market.RequestTimeout)
	output.Printf("  Cache Capacity:  %d\n", cfg.Market.CacheCapacity)
	output.Printf("  Fetch Workers:   %d\n", cfg.Market.FetchWorkers)
	output.Printf("  Interval:        %s\n", cfg.Market.DefaultInterval)
	output.Println()

	output.Bold("LLM Configuration")
	output.Printf("  Model:           %s\n", cfg.LLM.Model)
	output.Printf("  Temperature:     %.2f\n", cfg.LLM.Temperature)
	output.Printf("  Key Configured:  %v\n", cfg.LLMReady())
	output.Println()

	output.Bold("Server Configuration")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Println()

	output.Bold("Trace")
	output.Printf("  Enabled:         %v\n", cfg.Trace.Enabled)
	if cfg.Trace.Enabled {
		output.Printf("  Directory:       %s\n", cfg.Trace.Dir)
		output.Printf("  Database:        %s\n", cfg.Trace.DBPath)
	}

	return nil
}
