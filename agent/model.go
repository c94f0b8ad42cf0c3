package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/canonical"
	"github.com/hupe1980/matcharena/internal/schema"
	"github.com/hupe1980/matcharena/logging"
	"github.com/hupe1980/matcharena/model"
)

// Normalization methods recorded in the decision trace.
const (
	MethodJSON      = "json"
	MethodFenced    = "fenced"
	MethodSubstring = "substring"
)

// ErrNoAction is returned when a completion contains no JSON object.
var ErrNoAction = errors.New("agent: no JSON action in model output")

// ModelAgentOptions configures a ModelAgent instance.
type ModelAgentOptions struct {
	// Instruction becomes the system prompt. The default introduces the agent
	// and appends the scenario briefing.
	Instruction Instruction
	// Stream requests incremental generation from the model.
	Stream bool
	// MaxModelCalls caps model calls per match. Turns beyond the budget fail
	// without calling the model. Zero means unlimited.
	MaxModelCalls int
	Logger        logging.Logger
}

// ModelAgent asks a language model for each decision.
//
// Every turn is prompted independently: the model sees the system
// instruction, the scenario hints and the canonical JSON observation, and is
// asked to answer with a single JSON object. The raw completion and the way
// the action was extracted from it are recorded in the decision trace.
type ModelAgent struct {
	Base
	llm         model.Model
	instruction Instruction
	stream      bool
	limiter     *CallLimiter
	logger      logging.Logger
}

// NewModelAgent creates a model-backed agent named id.
func NewModelAgent(id string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction: NewInstructionFromFunc(defaultInstruction),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelAgent{
		Base:        NewBase(id),
		llm:         llm,
		instruction: opts.Instruction,
		stream:      opts.Stream,
		limiter:     NewCallLimiter(opts.MaxModelCalls),
		logger:      opts.Logger,
	}
}

func defaultInstruction(cfg core.AgentConfig) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a participant in a %s match.", cfg.AgentID, cfg.ScenarioName)
	if cfg.Briefing != "" {
		b.WriteString("\n\n")
		b.WriteString(cfg.Briefing)
	}
	b.WriteString("\n\nAnswer every turn with exactly one JSON object describing your action and nothing else.")
	return b.String(), nil
}

// Model returns the underlying language model.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Limiter returns the per-match model call budget.
func (a *ModelAgent) Limiter() *CallLimiter { return a.limiter }

// Init stores cfg and resets the call budget for the new match.
func (a *ModelAgent) Init(cfg core.AgentConfig) error {
	a.limiter.Reset()
	return a.Base.Init(cfg)
}

// Act implements core.Agent.
func (a *ModelAgent) Act(ctx context.Context, obs core.Observation, actx core.ActContext) (core.Action, error) {
	cfg := a.Config()

	system, err := a.instruction.Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	prompt, err := BuildPrompt(actx.Turn, obs, cfg.Hints)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Increment(); err != nil {
		return nil, err
	}

	resp, err := model.Complete(ctx, a.llm, model.Request{
		Instructions: system,
		Messages:     []model.Message{{Role: model.RoleUser, Text: prompt}},
		Stream:       a.stream,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	action, method, warnings, err := ExtractAction(resp.Text)
	if err == nil {
		if sch, ok := cfg.Hints["actionSchema"].(map[string]any); ok {
			if verr := schema.Validate(action, sch); verr != nil {
				warnings = append(warnings, "action does not match schema: "+verr.Error())
			}
		}
	}
	actx.Trace.Record(resp.Text, method, warnings...)
	if err != nil {
		a.logger.Debug("model output without action", "agent_id", a.ID(), "turn", actx.Turn)
		return nil, err
	}
	return action, nil
}

// BuildPrompt renders the user message for one turn.
func BuildPrompt(turn int, obs core.Observation, hints core.Hints) (string, error) {
	obsJSON, err := canonical.Marshal(obs)
	if err != nil {
		return "", fmt.Errorf("encode observation: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d.\n", turn)
	if len(hints) > 0 {
		hintsJSON, err := canonical.Marshal(hints)
		if err != nil {
			return "", fmt.Errorf("encode hints: %w", err)
		}
		fmt.Fprintf(&b, "Hints: %s\n", hintsJSON)
	}
	fmt.Fprintf(&b, "Observation: %s\n", obsJSON)
	b.WriteString("Respond with a single JSON object.")
	return b.String(), nil
}

// ExtractAction finds the JSON object in a model completion. It tries, in
// order, the whole text, a fenced code block and the outermost braces.
func ExtractAction(text string) (core.Action, string, []string, error) {
	trimmed := strings.TrimSpace(text)

	if action, ok := decodeObject(trimmed); ok {
		return action, MethodJSON, nil, nil
	}

	if block, ok := fencedBlock(trimmed); ok {
		if action, ok := decodeObject(block); ok {
			return action, MethodFenced, nil, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if action, ok := decodeObject(trimmed[start : end+1]); ok {
			return action, MethodSubstring, []string{"ignored text around JSON object"}, nil
		}
	}

	return nil, "", nil, ErrNoAction
}

func decodeObject(s string) (core.Action, bool) {
	if !gjson.Valid(s) || !gjson.Parse(s).IsObject() {
		return nil, false
	}
	var action core.Action
	if err := json.Unmarshal([]byte(s), &action); err != nil {
		return nil, false
	}
	return action, true
}

func fencedBlock(s string) (string, bool) {
	open := strings.Index(s, "```")
	if open < 0 {
		return "", false
	}
	rest := s[open+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		// drop the language tag
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
