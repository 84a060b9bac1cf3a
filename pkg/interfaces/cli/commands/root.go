// Package commands wires the balance CLI: scenario solving, batch runs, the
// MCP server and flattened-key inspection.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/application/services/planning"
	"github.com/vsinha/balance/pkg/infrastructure/config"
	"github.com/vsinha/balance/pkg/infrastructure/events"
	"github.com/vsinha/balance/pkg/infrastructure/logging"
	"github.com/vsinha/balance/pkg/infrastructure/repositories/scenariofile"
	"github.com/vsinha/balance/pkg/infrastructure/simplex"
	"github.com/vsinha/balance/pkg/interfaces/cli/output"
)

// runtime is the state every subcommand shares once configuration is loaded
type runtime struct {
	v       *viper.Viper
	fs      afero.Fs
	cfg     *config.Config
	logger  *zap.Logger
	events  *events.InMemoryEventStore
	service *planning.PlanningService
}

// NewRootCommand builds the balance command tree over the OS filesystem
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, afero.NewOsFs())
}

func newRootCommand(version string, fs afero.Fs) *cobra.Command {
	rt := &runtime{v: viper.New(), fs: fs}
	rt.v.SetFs(fs)
	var configFile string

	root := &cobra.Command{
		Use:   "balance",
		Short: "Linear and mixed-integer planning models for inventory, production and blending",
		Long: `balance solves three planning models from scenario files:

  inventory   multi-period inventory balancing with shortage and excess costs
  production  integer production planning under machine and labor capacity
  blend       product-mix blending with octane requirements

Scenarios are YAML documents. Configuration comes from --config, a .env file
and BALANCE_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(configFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log encoding: console or json")
	flags.BoolP("verbose", "v", false, "print run details before results")
	flags.StringP("format", "f", "text", "output format: text, json, csv")
	flags.StringP("output", "o", "", "directory for result files (optional for text and json)")
	mustBind(rt.v, "log.level", flags.Lookup("log-level"))
	mustBind(rt.v, "log.format", flags.Lookup("log-format"))
	mustBind(rt.v, "verbose", flags.Lookup("verbose"))
	mustBind(rt.v, "output.format", flags.Lookup("format"))
	mustBind(rt.v, "output.dir", flags.Lookup("output"))

	root.AddCommand(
		newSolveCommand(rt),
		newBatchCommand(rt),
		newServeCommand(rt, version),
		newKeysCommand(),
	)
	return root
}

func (rt *runtime) init(configFile string) error {
	cfg, err := config.Load(rt.v, configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.events = events.NewInMemoryEventStore(logger)
	rt.service = planning.NewPlanningService(
		simplex.NewBackend(cfg.SolverOptions()),
		planning.WithLogger(logger),
		planning.WithEventStore(rt.events),
	)
	logger.Debug("configuration loaded",
		zap.String("config", configFile),
		zap.Int("max_nodes", cfg.Solver.MaxNodes),
		zap.String("output_format", cfg.Output.Format))
	return nil
}

func (rt *runtime) loader() *scenariofile.Loader {
	return scenariofile.NewLoader(rt.fs)
}

func (rt *runtime) outputConfig(out io.Writer) output.Config {
	return output.Config{
		Format:    rt.cfg.Output.Format,
		OutputDir: rt.cfg.Output.Dir,
		Verbose:   rt.v.GetBool("verbose"),
		Fs:        rt.fs,
		Out:       out,
	}
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}
