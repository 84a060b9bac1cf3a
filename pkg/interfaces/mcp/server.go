package mcp

import (
	"bytes"
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/vsinha/balance/pkg/application/services/planning"
	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
	"github.com/vsinha/balance/pkg/interfaces/cli/output"
)

// OptimizeInventoryToolName is the name the inventory tool is registered under
const OptimizeInventoryToolName = "optimize_inventory"

const optimizeInventoryDescription = `Optimize inventory management using linear programming.

Minimizes shortage and excess costs across products and periods.

effective_demand and yielded_supply use "product_period" keys, for example
{"Widget_A_January": 250, "Widget_A_February": 300}. Keys are matched against
the products and periods lists first; keys without an underscore are skipped.`

// OptimizeInventoryParams is the input of the optimize_inventory tool
type OptimizeInventoryParams struct {
	Products          []string           `json:"products"`
	Periods           []string           `json:"periods"`
	InitialInventory  map[string]float64 `json:"initial_inventory"`
	EffectiveDemand   map[string]float64 `json:"effective_demand"`
	YieldedSupply     map[string]float64 `json:"yielded_supply"`
	SafetyStockTarget map[string]float64 `json:"safety_stock_target"`
	ShortageCost      float64            `json:"shortage_cost"`
	ExcessCost        float64            `json:"excess_cost"`
}

// Server exposes the planning service as MCP tools
type Server struct {
	planning *planning.PlanningService
	logger   *zap.Logger
	version  string
}

// NewServer creates a tool server on top of a planning service
func NewServer(planningService *planning.PlanningService, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{planning: planningService, logger: logger, version: version}
}

// MCPServer builds the SDK server with every tool registered
func (s *Server) MCPServer() *mcpsdk.Server {
	impl := &mcpsdk.Implementation{
		Name:    "balance",
		Version: s.version,
	}
	server := mcpsdk.NewServer(impl, nil)

	tool := &mcpsdk.Tool{
		Name:        OptimizeInventoryToolName,
		Description: optimizeInventoryDescription,
	}
	mcpsdk.AddTool(server, tool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[OptimizeInventoryParams]) (*mcpsdk.CallToolResultFor[any], error) {
		report, err := s.OptimizeInventory(ctx, params.Arguments)
		if err != nil {
			s.logger.Warn("tool call failed", zap.String("tool", OptimizeInventoryToolName), zap.Error(err))
			return textResult(err.Error(), true), nil
		}
		return textResult(report, false), nil
	})
	return server
}

// Run serves the tools over stdio until the client disconnects or ctx ends
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", zap.String("version", s.version))
	if err := s.MCPServer().Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// OptimizeInventory rebuilds the inventory scenario from flattened keys, solves
// it, and renders the text report.
func (s *Server) OptimizeInventory(ctx context.Context, params OptimizeInventoryParams) (string, error) {
	scenario, keys := toInventoryScenario(params)
	s.planning.RecordKeyReport(OptimizeInventoryToolName, keys)

	plan, err := s.planning.PlanInventory(ctx, scenario)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	output.WriteInventoryReport(&buf, plan, planning.InventoryCosts(scenario, plan), keys)
	return buf.String(), nil
}

func toInventoryScenario(params OptimizeInventoryParams) (*entities.InventoryScenario, services.KeyReport) {
	products := make([]entities.ProductID, len(params.Products))
	for i, p := range params.Products {
		products[i] = entities.ProductID(p)
	}
	periods := make([]entities.PeriodID, len(params.Periods))
	for i, t := range params.Periods {
		periods[i] = entities.PeriodID(t)
	}

	demand, keys := services.UnflattenKeys(params.EffectiveDemand, products, periods)
	supply, supplyKeys := services.UnflattenKeys(params.YieldedSupply, products, periods)
	keys.Merge(supplyKeys)

	return &entities.InventoryScenario{
		Products:          products,
		Periods:           periods,
		InitialInventory:  byProduct(params.InitialInventory),
		EffectiveDemand:   demand,
		YieldedSupply:     supply,
		SafetyStockTarget: byProduct(params.SafetyStockTarget),
		ShortageCost:      params.ShortageCost,
		ExcessCost:        params.ExcessCost,
	}, keys
}

func byProduct(values map[string]float64) map[entities.ProductID]float64 {
	if values == nil {
		return nil
	}
	out := make(map[entities.ProductID]float64, len(values))
	for k, v := range values {
		out[entities.ProductID(k)] = v
	}
	return out
}

func textResult(text string, isError bool) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		IsError: isError,
	}
}
