package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/application/services/planning"
	"github.com/vsinha/balance/pkg/infrastructure/events"
	"github.com/vsinha/balance/pkg/infrastructure/repositories/scenariofile"
	"github.com/vsinha/balance/pkg/interfaces/cli/output"
)

// Config holds configuration for the solve command
type Config struct {
	Scenario  string
	OutputDir string
	Format    string
	Verbose   bool
	Events    bool
}

// SolveCommand loads one scenario, solves it, and renders the plan
type SolveCommand struct {
	config     Config
	loader     *scenariofile.Loader
	service    *planning.PlanningService
	eventStore events.EventStore
	output     output.Config
	logger     *zap.Logger
}

func newSolveCommand(rt *runtime) *cobra.Command {
	var showEvents bool
	cmd := &cobra.Command{
		Use:   "solve <scenario>",
		Short: "Solve one scenario and print its plan",
		Long: `Solve loads a scenario file (or a directory holding scenario.yaml), builds
the model named by its "model" field and renders the resulting plan.`,
		Example: `  balance solve examples/scenarios/inventory_demo.yaml
  balance solve examples/scenarios/multi_period_demo.yaml --format csv --output results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := Config{
				Scenario:  args[0],
				OutputDir: rt.cfg.Output.Dir,
				Format:    rt.cfg.Output.Format,
				Verbose:   rt.v.GetBool("verbose"),
				Events:    showEvents,
			}
			solve := NewSolveCommand(config, rt.loader(), rt.service, rt.events, rt.outputConfig(cmd.OutOrStdout()), rt.logger)
			return solve.Execute(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&showEvents, "events", false, "print the run's event journal after the plan")
	return cmd
}

// NewSolveCommand creates a new solve command with the given configuration
func NewSolveCommand(
	config Config,
	loader *scenariofile.Loader,
	service *planning.PlanningService,
	eventStore events.EventStore,
	out output.Config,
	logger *zap.Logger,
) *SolveCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	out.Format = config.Format
	out.OutputDir = config.OutputDir
	out.Verbose = config.Verbose
	return &SolveCommand{
		config:     config,
		loader:     loader,
		service:    service,
		eventStore: eventStore,
		output:     out,
		logger:     logger,
	}
}

// Execute runs the solve command
func (c *SolveCommand) Execute(ctx context.Context) error {
	if c.config.Scenario == "" {
		return fmt.Errorf("validation error: scenario path is required")
	}

	if c.config.Verbose {
		c.printHeader()
	}

	scenario, keys, err := c.loader.Load(c.config.Scenario)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	c.logger.Debug("scenario loaded",
		zap.String("scenario", scenario.Name),
		zap.Stringer("model", scenario.Kind))
	c.service.RecordKeyReport(scenario.Name, keys)

	result, err := c.service.Plan(ctx, scenario)
	if err != nil {
		return fmt.Errorf("failed to plan scenario %s: %w", scenario.Name, err)
	}
	result.Keys = keys

	if err := output.Generate(result, c.output); err != nil {
		return fmt.Errorf("failed to generate output: %w", err)
	}

	if c.config.Events && c.eventStore != nil {
		journal, err := c.eventStore.ReadAllEvents(0)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		fmt.Fprintln(c.out(), "\nEvents:")
		if err := output.WriteEvents(c.out(), journal); err != nil {
			return err
		}
	}
	return nil
}

func (c *SolveCommand) out() io.Writer {
	return c.output.Out
}

// printHeader prints the command header information
func (c *SolveCommand) printHeader() {
	w := c.out()
	fmt.Fprintf(w, "Balance planning engine\n")
	fmt.Fprintf(w, "Scenario: %s\n", c.config.Scenario)
	fmt.Fprintf(w, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(w, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(w)
}
