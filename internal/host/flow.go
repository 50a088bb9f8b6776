package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/soyeahso/discordbridge/internal/config"
	"github.com/soyeahso/discordbridge/internal/logging"
)

// ErrNodeFailed is returned when a node reports an error through SetError
// without returning one itself.
var ErrNodeFailed = errors.New("node failed")

// RunResult describes one pass through a flow's actions.
type RunResult struct {
	Flow     string
	Executed int
	Outputs  map[string]any
	Err      error
}

type step struct {
	cfg  config.NodeConfig
	desc NodeDesc
	node Node
}

// Flow is a trigger node followed by actions executed in order each time the
// trigger fires. An action input whose value starts with "$" reads the
// output of the same name from the trigger or an earlier action.
type Flow struct {
	name       string
	props      map[string]string
	trigger    EventNode
	triggerCfg config.NodeConfig
	steps      []step
	log        *logging.Logger

	mu        sync.Mutex
	ctx       context.Context
	listening bool
	onRun     func(RunResult)
}

// NewFlow instantiates every node of cfg from the catalog.
func NewFlow(cat *Catalog, cfg config.FlowConfig, log *logging.Logger) (*Flow, error) {
	inst, desc, err := cat.New(cfg.Trigger.Type)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", cfg.Name, err)
	}
	trigger, ok := inst.(EventNode)
	if !ok || desc.Flags&FlagTriggerEvent == 0 {
		return nil, fmt.Errorf("flow %s: %s is not a trigger", cfg.Name, cfg.Trigger.Type)
	}

	f := &Flow{
		name:       cfg.Name,
		props:      cfg.Properties,
		trigger:    trigger,
		triggerCfg: cfg.Trigger,
		log:        log.With("flow", cfg.Name),
	}

	for i, a := range cfg.Actions {
		inst, desc, err := cat.New(a.Type)
		if err != nil {
			return nil, fmt.Errorf("flow %s: actions[%d]: %w", cfg.Name, i, err)
		}
		node, ok := inst.(Node)
		if !ok {
			return nil, fmt.Errorf("flow %s: actions[%d]: %s is not executable", cfg.Name, i, a.Type)
		}
		f.steps = append(f.steps, step{cfg: a, desc: desc, node: node})
	}
	return f, nil
}

// Name returns the flow name.
func (f *Flow) Name() string { return f.name }

// OnRun sets a callback invoked after each pass through the actions.
func (f *Flow) OnRun(fn func(RunResult)) {
	f.mu.Lock()
	f.onRun = fn
	f.mu.Unlock()
}

// Start begins listening on the trigger.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.listening {
		f.mu.Unlock()
		return nil
	}
	f.ctx = ctx
	f.mu.Unlock()

	tc := &triggerContext{nodeContext{flow: f, cfg: f.triggerCfg, vars: map[string]any{}}}
	if err := f.trigger.StartListening(tc); err != nil {
		if tc.errMsg != "" {
			return fmt.Errorf("flow %s: starting trigger: %s: %w", f.name, tc.errMsg, err)
		}
		return fmt.Errorf("flow %s: starting trigger: %w", f.name, err)
	}

	f.mu.Lock()
	f.listening = true
	f.mu.Unlock()
	f.log.Info().Str("trigger", f.triggerCfg.Type).Int("actions", len(f.steps)).Msg("flow listening")
	return nil
}

// Stop stops listening on the trigger. Safe to call more than once.
func (f *Flow) Stop() {
	f.mu.Lock()
	was := f.listening
	f.listening = false
	f.mu.Unlock()
	if was {
		f.trigger.StopListening()
		f.log.Info().Msg("flow stopped")
	}
}

func (f *Flow) context() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctx == nil {
		return context.Background()
	}
	return f.ctx
}

// run executes the actions with the trigger's outputs as initial variables.
func (f *Flow) run(pin string, vars map[string]any) RunResult {
	res := RunResult{Flow: f.name, Outputs: vars}
	f.log.Debug().Str("pin", pin).Msg("flow triggered")

	for i, s := range f.steps {
		ec := &execContext{nodeContext{flow: f, cfg: s.cfg, vars: vars}}
		err := s.node.Execute(ec)
		if err == nil && ec.errMsg != "" {
			err = fmt.Errorf("%w: %s", ErrNodeFailed, ec.errMsg)
		}
		if err != nil {
			res.Err = fmt.Errorf("actions[%d] %s: %w", i, s.cfg.Type, err)
			f.log.Warn().Err(err).Int("step", i).Str("node", s.cfg.Type).Msg("flow aborted")
			break
		}
		res.Executed++
	}

	f.mu.Lock()
	cb := f.onRun
	f.mu.Unlock()
	if cb != nil {
		cb(res)
	}
	return res
}

// nodeContext holds what trigger and action contexts share.
type nodeContext struct {
	flow   *Flow
	cfg    config.NodeConfig
	vars   map[string]any
	errMsg string
}

func (c *nodeContext) Context() context.Context { return c.flow.context() }

func (c *nodeContext) Input(name string) string {
	raw, ok := c.cfg.Inputs[name]
	if !ok {
		return ""
	}
	if ref, isRef := strings.CutPrefix(raw, "$"); isRef && ref != "" {
		return stringify(c.vars[ref])
	}
	return raw
}

func (c *nodeContext) InputInt(name string) (int64, bool) {
	s := strings.TrimSpace(c.Input(name))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Property reads the node's properties, then the flow's.
func (c *nodeContext) Property(name string) string {
	if v, ok := c.cfg.Properties[name]; ok {
		return v
	}
	return c.flow.props[name]
}

func (c *nodeContext) SetOutput(name string, value any) { c.vars[name] = value }

func (c *nodeContext) SetError(msg string) { c.errMsg = msg }

type execContext struct {
	nodeContext
}

func (c *execContext) Trigger(pin string) {
	c.flow.log.Debug().Str("node", c.cfg.Type).Str("pin", pin).Msg("pin fired")
}

// triggerContext stays valid for as long as the trigger listens. Outputs
// set before Trigger become the variables of the run it starts.
type triggerContext struct {
	nodeContext
}

func (c *triggerContext) Trigger(pin string) {
	vars := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	c.flow.run(pin, vars)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
