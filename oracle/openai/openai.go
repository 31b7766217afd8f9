// Package openai adapts the OpenAI Chat Completions API (with function/tool
// calling) to the oracle.Oracle contract. Delegation targets are exposed to
// the model as a synthetic delegate_to_agent function; its invocation is
// mapped back to an oracle.Delegate decision.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/oracle"
)

// Options configure the OpenAI oracle adapter. Fields mirror a minimal subset
// of Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Oracle wraps the OpenAI Chat Completions API behind oracle.Oracle.
type Oracle struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI oracle using the default client (API key from env).
func New(optFns ...func(o *Options)) *Oracle {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI oracle from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle with a single non-streaming completion.
func (o *Oracle) Decide(ctx context.Context, req oracle.Request) (oracle.Decision, error) {
	params := o.buildParams(req)

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai completion returned no choices")
	}

	msg := completion.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		if tc.Function.Name == oracle.DelegateToolName {
			return decodeDelegate([]byte(tc.Function.Arguments))
		}
		return oracle.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}, nil
	}
	return oracle.Text{Content: msg.Content}, nil
}

// Info implements oracle.Oracle.
func (o *Oracle) Info() oracle.Info {
	return oracle.Info{Name: o.opts.Model, Provider: "openai"}
}

func (o *Oracle) buildParams(req oracle.Request) openai.ChatCompletionNewParams {
	toolResponses, order := collectToolResponses(req.History)
	messages := buildMessages(req, toolResponses, order)

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               o.opts.Model,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}

	defs := oracleToolDefinitions(req)
	if len(defs) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, td := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        td.Name,
				Description: openai.String(td.Description),
				Parameters:  td.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// oracleToolDefinitions merges the node's capability definitions with the
// synthetic delegation function when children exist.
func oracleToolDefinitions(req oracle.Request) []oracle.ToolDefinition {
	defs := make([]oracle.ToolDefinition, 0, len(req.Tools)+1)
	defs = append(defs, req.Tools...)
	if len(req.Children) > 0 {
		defs = append(defs, delegateDefinition(req.Children))
	}
	return defs
}

func delegateDefinition(children []oracle.ChildRef) oracle.ToolDefinition {
	names := make([]string, len(children))
	var desc strings.Builder
	desc.WriteString("Hand the conversation to a specialized sub-agent. Available agents: ")
	for i, c := range children {
		names[i] = c.Name
		if i > 0 {
			desc.WriteString("; ")
		}
		desc.WriteString(c.Name)
		if c.Description != "" {
			desc.WriteString(" - " + c.Description)
		}
	}
	return oracle.ToolDefinition{
		Name:        oracle.DelegateToolName,
		Description: desc.String(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent": map[string]any{
					"type":        "string",
					"enum":        names,
					"description": "Target agent name",
				},
			},
			"required": []string{"agent"},
		},
	}
}

func decodeDelegate(raw []byte) (oracle.Decision, error) {
	var payload struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode delegate arguments: %w", err)
	}
	return oracle.Delegate{Target: payload.Agent}, nil
}

// collectToolResponses indexes function responses by call id preserving
// first-seen order.
func collectToolResponses(history []core.Event) (map[string]string, []string) {
	responses := map[string]string{}
	order := []string{}
	for _, ev := range history {
		for _, fr := range ev.GetFunctionResponses() {
			if fr.ID == "" {
				continue
			}
			if _, exists := responses[fr.ID]; exists {
				continue
			}
			responses[fr.ID] = renderFunctionResponse(fr)
			order = append(order, fr.ID)
		}
	}
	return responses, order
}

func renderFunctionResponse(fr core.FunctionResponse) string {
	if fr.Error != "" {
		b, _ := json.Marshal(map[string]any{"error": fr.Error})
		return string(b)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	b, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}
	return string(b)
}

// buildMessages converts history into OpenAI chat messages, attaching each
// tool response immediately after the assistant tool call that produced it.
func buildMessages(
	req oracle.Request,
	toolResponses map[string]string,
	order []string,
) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(req.Policy)}
	for _, ev := range req.History {
		if ev.Content == nil || ev.Content.Role == "tool" {
			continue
		}
		text := ev.Content.Text()
		switch ev.Content.Role {
		case "user":
			messages = append(messages, openai.UserMessage(text))
		case "assistant":
			toolCalls, callIDs := extractToolCalls(ev)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			messages = append(
				messages,
				openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				}},
			)
			for _, id := range callIDs {
				if resp, ok := toolResponses[id]; ok {
					messages = append(messages, openai.ToolMessage(resp, id))
					delete(toolResponses, id)
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	for _, id := range order {
		if resp, ok := toolResponses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}
	return messages
}

func extractToolCalls(ev core.Event) ([]openai.ChatCompletionMessageToolCallParam, []string) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	var callIDs []string
	for _, fc := range ev.GetFunctionCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
		callIDs = append(callIDs, fc.ID)
	}
	return toolCalls, callIDs
}
