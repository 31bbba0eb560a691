package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const (
	NodeAgent = "agent"
	NodeTools = "tools"
	NodeEnd   = "end"
)

var ErrMaxToolRounds = errors.New("max tool rounds exceeded")

// represent state that exchange between node.
type State struct {
	Message []*Message
	// number of tool rounds executed so far
	Rounds int
}

// node is the unit of execution in the graph
type Node interface {
	// processing state and generate new state.
	Execute(ctx context.Context, state State) (next string, newState State, err error)
	// the name of the node, it will use by graph to determine which node is next.
	Name() string
}

// graph holds node and manage execution flow
type Graph struct {
	nodes map[string]Node
}

func NewGraph() *Graph {
	return &Graph{
		nodes: map[string]Node{},
	}
}

func (g *Graph) AddNode(node Node) {
	g.nodes[node.Name()] = node
}

// running execution
func (g *Graph) Run(ctx context.Context, entrypoint string, initState State) (*Message, error) {
	currentNode, ok := g.nodes[entrypoint]
	if !ok {
		return nil, fmt.Errorf("entrypoint node '%s' not found", entrypoint)
	}

	currentState := initState
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, newState, err := currentNode.Execute(ctx, currentState)
		if err != nil {
			return nil, fmt.Errorf("failed executing node '%s' : %w", currentNode.Name(), err)
		}
		currentState = newState

		// the graph execution ends when it return empty string for next node
		if next == "" || next == NodeEnd {
			if len(currentState.Message) == 0 {
				return nil, fmt.Errorf("graph ended without message")
			}
			return currentState.Message[len(currentState.Message)-1], nil
		}

		nextNode, ok := g.nodes[next]
		if !ok {
			return nil, fmt.Errorf("next node '%s' is not found", next)
		}
		currentNode = nextNode
	}
}

// execute every tool call found in the last message.
type ToolsNode struct {
	tools Tools
}

func (tn *ToolsNode) Name() string {
	return NodeTools
}

func (tn *ToolsNode) Execute(ctx context.Context, state State) (string, State, error) {
	lastMsg := state.Message[len(state.Message)-1]

	calls, ok := lastMsg.ToolCalls()
	if !ok {
		return "", state, fmt.Errorf("expected a tool call, but found none in the last message")
	}

	toolRespMsg := &Message{Role: RoleTool}
	for _, tc := range calls {
		toolResp, err := tn.tools.Invoke(ctx, tc.Function)
		if err != nil {
			toolResp = &ToolResponse{
				Name:   tc.Function.Name,
				Output: map[string]any{"error": err.Error()},
			}
		}
		slog.Debug("graph_nodes_tool", "tool", tc.Function.Name, "output", toolResp.Output, "error", err)

		toolRespMsg.Parts = append(toolRespMsg.Parts, &Part{ToolResponse: toolResp})
	}

	state.Message = append(state.Message, toolRespMsg)
	state.Rounds++

	return NodeAgent, state, nil
}

type AgentNode struct {
	provider  Provider
	tools     []Tool
	maxRounds int
}

func (an *AgentNode) Name() string {
	return NodeAgent
}

func (an *AgentNode) Execute(ctx context.Context, state State) (string, State, error) {
	if an.maxRounds > 0 && state.Rounds >= an.maxRounds {
		return "", state, ErrMaxToolRounds
	}

	resp, err := an.provider.Chat(ctx, CCReq{
		Messages:   state.Message,
		Tools:      an.tools,
		ToolChoice: "auto",
	})
	if err != nil {
		return "", state, err
	}
	if len(resp.Choices) == 0 {
		return "", state, fmt.Errorf("provider returned no choices")
	}

	modelMsg := Message{
		Role: RoleAssistant,
		Parts: []*Part{
			{Text: resp.Choices[0].Text},
		},
	}

	toolCalls, hasToolCall := resp.IsToolCall()
	if hasToolCall {
		// clear the text part for tool call
		modelMsg.Parts = []*Part{}
		for _, tc := range toolCalls {
			modelMsg.Parts = append(modelMsg.Parts, &Part{Toolcall: tc})
		}
	}

	state.Message = append(state.Message, &modelMsg)

	if hasToolCall {
		return NodeTools, state, nil
	}

	return NodeEnd, state, nil
}
