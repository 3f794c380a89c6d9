// Package chat implements the framework adapter for single-agent chat
// execution backed by the go-agents library.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/frameworks"
)

// FrameworkName identifies this adapter in the registry.
const FrameworkName = "chat"

// Adapter provisions go-agents chat agents.
type Adapter struct {
	logger *slog.Logger
}

// New creates a chat framework adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{
		logger: logger.With("framework", FrameworkName),
	}
}

type instance struct {
	agentID uuid.UUID
	agent   agent.Agent

	mu      sync.Mutex
	started bool
}

func (i *instance) Framework() string { return FrameworkName }

// Name returns the framework identifier.
func (a *Adapter) Name() string { return FrameworkName }

// Schema describes the chat framework configuration surface.
func (a *Adapter) Schema() frameworks.Schema {
	return frameworks.Schema{
		Framework: FrameworkName,
		Fields: []frameworks.Field{
			{Name: "config", Type: "object", Required: true, Description: "go-agents AgentConfig as JSON (includes embedded provider config)"},
		},
	}
}

// ValidateConfig merges the configuration over library defaults and
// constructs a throwaway agent to surface validation errors.
func (a *Adapter) ValidateConfig(config json.RawMessage) error {
	_, err := a.buildAgent(frameworks.Launch{Config: config})
	return err
}

// CreateResources constructs the chat agent for the launch definition.
func (a *Adapter) CreateResources(ctx context.Context, launch frameworks.Launch) (frameworks.Instance, error) {
	ag, err := a.buildAgent(launch)
	if err != nil {
		return nil, err
	}

	a.logger.Info("chat agent provisioned", "agent_id", launch.AgentID, "name", launch.Name)

	return &instance{
		agentID: launch.AgentID,
		agent:   ag,
	}, nil
}

// Start marks the instance active. Chat agents hold no external
// resources beyond the provider client, so activation is local.
func (a *Adapter) Start(ctx context.Context, inst frameworks.Instance) error {
	i, err := a.instance(inst)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.started = true
	i.mu.Unlock()
	return nil
}

// Stop deactivates the instance.
func (a *Adapter) Stop(ctx context.Context, inst frameworks.Instance) error {
	i, err := a.instance(inst)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.started = false
	i.mu.Unlock()
	return nil
}

// Query sends input to the chat agent and returns the response content.
func (a *Adapter) Query(ctx context.Context, inst frameworks.Instance, input string) (string, error) {
	i, err := a.instance(inst)
	if err != nil {
		return "", err
	}

	resp, err := i.agent.Chat(ctx, input)
	if err != nil {
		return "", fmt.Errorf("chat execution: %w", err)
	}

	return resp.Content(), nil
}

func (a *Adapter) instance(inst frameworks.Instance) (*instance, error) {
	i, ok := inst.(*instance)
	if !ok {
		return nil, fmt.Errorf("%w: foreign instance type %T", frameworks.ErrInvalidConfig, inst)
	}
	return i, nil
}

// buildAgent merges the stored configuration over library defaults,
// applying the agent's model and model parameter overrides, and
// constructs the go-agents agent.
func (a *Adapter) buildAgent(launch frameworks.Launch) (agent.Agent, error) {
	merged, err := applyOverrides(launch)
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

// applyOverrides layers the agent's model and model parameters onto the
// raw configuration document before it is parsed.
func applyOverrides(launch frameworks.Launch) (json.RawMessage, error) {
	if len(launch.Config) == 0 {
		return nil, fmt.Errorf("%w: config is required", frameworks.ErrInvalidConfig)
	}

	if launch.Model == "" && len(launch.ModelParams) == 0 {
		return launch.Config, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(launch.Config, &doc); err != nil {
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
