package agent

import (
	"context"
)

// orchestrate execution flow.
type Agent struct {
	provider      Provider
	tools         Tools
	maxToolRounds int
}

func New(provider Provider, opts ...OptionFunc) *Agent {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	if o.tools == nil {
		o.tools = Tools{}
	}
	if o.maxToolRounds <= 0 {
		o.maxToolRounds = defaultMaxToolRounds
	}

	return &Agent{
		provider:      provider,
		tools:         o.tools,
		maxToolRounds: o.maxToolRounds,
	}
}

// Completion runs the agent graph over msgs and returns the final model message.
// msgs is not modified.
func (a *Agent) Completion(ctx context.Context, msgs []*Message) (*Message, error) {
	graph := NewGraph()
	graph.AddNode(&AgentNode{
		provider:  a.provider,
		tools:     a.tools.Def(),
		maxRounds: a.maxToolRounds,
	})
	graph.AddNode(&ToolsNode{tools: a.tools})

	copyMsg := make([]*Message, len(msgs))
	copy(copyMsg, msgs)

	return graph.Run(ctx, NodeAgent, State{Message: copyMsg})
}

// Tools return definitions of every tool bound to the agent.
func (a *Agent) Tools() []Tool {
	return a.tools.Def()
}
