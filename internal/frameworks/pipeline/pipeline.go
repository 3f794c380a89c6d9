// Package pipeline implements the framework adapter for multi-stage
// sequential execution backed by go-agents-orchestration state graphs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"
	orchconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/frameworks"
)

// FrameworkName identifies this adapter in the registry.
const FrameworkName = "pipeline"

// Config is the framework-specific configuration document: an embedded
// agent configuration plus an ordered list of stages.
type Config struct {
	Agent  json.RawMessage `json:"agent"`
	Stages []Stage         `json:"stages"`
}

// Stage is a single step in the pipeline. The stage prompt frames the
// text flowing through the pipeline.
type Stage struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Adapter provisions staged pipelines executed as linear state graphs.
type Adapter struct {
	logger *slog.Logger
}

// New creates a pipeline framework adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{
		logger: logger.With("framework", FrameworkName),
	}
}

type instance struct {
	agentID uuid.UUID
	agent   agent.Agent
	stages  []Stage
}

func (i *instance) Framework() string { return FrameworkName }

// Name returns the framework identifier.
func (a *Adapter) Name() string { return FrameworkName }

// Schema describes the pipeline framework configuration surface.
func (a *Adapter) Schema() frameworks.Schema {
	return frameworks.Schema{
		Framework: FrameworkName,
		Fields: []frameworks.Field{
			{Name: "agent", Type: "object", Required: true, Description: "go-agents AgentConfig as JSON shared by every stage"},
			{Name: "stages", Type: "array", Required: true, Description: "Ordered stages, each with a name and a framing prompt"},
		},
	}
}

// ValidateConfig parses the pipeline definition and validates the
// embedded agent configuration and stage list.
func (a *Adapter) ValidateConfig(config json.RawMessage) error {
	_, _, err := a.build(frameworks.Launch{Config: config})
	return err
}

// CreateResources constructs the shared agent and captures the stage
// plan for the launch definition.
func (a *Adapter) CreateResources(ctx context.Context, launch frameworks.Launch) (frameworks.Instance, error) {
	ag, stages, err := a.build(launch)
	if err != nil {
		return nil, err
	}

	a.logger.Info("pipeline provisioned",
		"agent_id", launch.AgentID,
		"name", launch.Name,
		"stages", len(stages),
	)

	return &instance{
		agentID: launch.AgentID,
		agent:   ag,
		stages:  stages,
	}, nil
}

// Start activates the pipeline. Stage graphs are built per query, so
// there is nothing to warm up.
func (a *Adapter) Start(ctx context.Context, inst frameworks.Instance) error {
	_, err := a.instance(inst)
	return err
}

// Stop deactivates the pipeline.
func (a *Adapter) Stop(ctx context.Context, inst frameworks.Instance) error {
	_, err := a.instance(inst)
	return err
}

// Query runs the input through every stage in order using a linear
// state graph and returns the final stage output.
func (a *Adapter) Query(ctx context.Context, inst frameworks.Instance, input string) (string, error) {
	i, err := a.instance(inst)
	if err != nil {
		return "", err
	}

	cfg := orchconfig.DefaultGraphConfig(fmt.Sprintf("pipeline-%s", i.agentID))
	cfg.Checkpoint.Interval = 1
	cfg.Checkpoint.Preserve = false

	graph, err := state.NewGraphWithDeps(cfg, newLogObserver(a.logger), newMemoryCheckpointStore())
	if err != nil {
		return "", fmt.Errorf("build graph: %w", err)
	}

	for _, stage := range i.stages {
		if err := graph.AddNode(stage.Name, stageNode(i.agent, stage)); err != nil {
			return "", fmt.Errorf("add stage %s: %w", stage.Name, err)
		}
	}

	for idx := 1; idx < len(i.stages); idx++ {
		if err := graph.AddEdge(i.stages[idx-1].Name, i.stages[idx].Name, nil); err != nil {
			return "", fmt.Errorf("connect stage %s: %w", i.stages[idx].Name, err)
		}
	}

	if err := graph.SetEntryPoint(i.stages[0].Name); err != nil {
		return "", err
	}
	if err := graph.SetExitPoint(i.stages[len(i.stages)-1].Name); err != nil {
		return "", err
	}

	initial := state.New(nil).Set("input", input)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return "", fmt.Errorf("pipeline execution: %w", err)
	}

	output, ok := final.Get("output")
	if !ok {
		return "", fmt.Errorf("pipeline produced no output")
	}

	text, ok := output.(string)
	if !ok {
		return "", fmt.Errorf("pipeline output is not text")
	}
	return text, nil
}

// stageNode wraps a stage as a graph node. Each stage consumes the
// previous stage's output, falling back to the pipeline input.
func stageNode(ag agent.Agent, stage Stage) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		text, ok := s.Get("output")
		if !ok {
			text, ok = s.Get("input")
			if !ok {
				return s, fmt.Errorf("stage %s: no input available", stage.Name)
			}
		}

		prompt := fmt.Sprintf("%s\n\n%s", stage.Prompt, text)

		resp, err := ag.Chat(ctx, prompt)
		if err != nil {
			return s, fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		return s.Set("output", resp.Content()), nil
	})
}

func (a *Adapter) instance(inst frameworks.Instance) (*instance, error) {
	i, ok := inst.(*instance)
	if !ok {
		return nil, fmt.Errorf("%w: foreign instance type %T", frameworks.ErrInvalidConfig, inst)
	}
	return i, nil
}

func (a *Adapter) build(launch frameworks.Launch) (agent.Agent, []Stage, error) {
	if len(launch.Config) == 0 {
		return nil, nil, fmt.Errorf("%w: config is required", frameworks.ErrInvalidConfig)
	}

	var cfg Config
	if err := json.Unmarshal(launch.Config, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", frameworks.ErrInvalidConfig, err)
	}

	if len(cfg.Stages) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one stage is required", frameworks.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(cfg.Stages))
	for idx, stage := range cfg.Stages {
		name := strings.TrimSpace(stage.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: stage %d has no name", frameworks.ErrInvalidConfig, idx)
		}
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate stage name %s", frameworks.ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}

	ag, err := buildAgent(cfg.Agent, launch)
	if err != nil {
		return nil, nil, err
	}

	return ag, cfg.Stages, nil
}

func buildAgent(raw json.RawMessage, launch frameworks.Launch) (agent.Agent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: agent config is required", frameworks.ErrInvalidConfig)
	}

	merged, err := applyOverrides(raw, launch)
	if err != nil {
		return nil, err
	}

	cfg := agtconfig.DefaultAgentConfig()

	var userCfg agtconfig.AgentConfig
	if err := json.Unmarshal(merged, &userCfg); err != nil {
		return nil, fmt.Errorf("%w: %v", frameworks.ErrInvalidConfig, err)
	}

	cfg.Merge(&userCfg)

	ag, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frameworks.ErrInvalidConfig, err)
	}
	return ag, nil
}

func applyOverrides(raw json.RawMessage, launch frameworks.Launch) (json.RawMessage, error) {
	if launch.Model == "" && len(launch.ModelParams) == 0 {
		return raw, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", frameworks.ErrInvalidConfig, err)
	}

	if launch.Model != "" {
		doc["model"] = launch.Model
	}

	if len(launch.ModelParams) > 0 {
		var params map[string]any
		if err := json.Unmarshal(launch.ModelParams, &params); err != nil {
			return nil, fmt.Errorf("%w: invalid model_params: %v", frameworks.ErrInvalidConfig, err)
		}

		options, _ := doc["options"].(map[string]any)
		if options == nil {
			options = make(map[string]any)
		}
		for k, v := range params {
			options[k] = v
		}
		doc["options"] = options
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frameworks.ErrInvalidConfig, err)
	}
	return merged, nil
}
