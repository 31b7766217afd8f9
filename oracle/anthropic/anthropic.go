// Package anthropic adapts the Anthropic Messages API (with tool use) to the
// oracle.Oracle contract. Delegation targets are exposed to the model as a
// synthetic delegate_to_agent tool; its use is mapped back to an
// oracle.Delegate decision.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/oracle"
)

// Options configures the Anthropic oracle adapter (model id, temperature,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Oracle wraps the Anthropic Messages API behind oracle.Oracle.
type Oracle struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Oracle{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic oracle from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle with a single non-streaming message call.
func (o *Oracle) Decide(ctx context.Context, req oracle.Request) (oracle.Decision, error) {
	params := anthropic.MessageNewParams{
		Model:       o.opts.Model,
		Messages:    buildMessages(req.History),
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(o.opts.Temperature),
	}
	if req.Policy != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Policy}}
	}
	if defs := oracleToolDefinitions(req); len(defs) > 0 {
		params.Tools = buildTools(defs)
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args, merr := json.Marshal(toolBlock.Input)
			if merr != nil {
				args = []byte("{}")
			}
			if toolBlock.Name == oracle.DelegateToolName {
				return decodeDelegate(args)
			}
			return oracle.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: json.RawMessage(args),
			}, nil
		}
	}
	return oracle.Text{Content: text.String()}, nil
}

// Info implements oracle.Oracle.
func (o *Oracle) Info() oracle.Info {
	return oracle.Info{Name: string(o.opts.Model), Provider: "anthropic"}
}

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

// buildMessages converts history into Anthropic message format, embedding
// tool results immediately after the tool_use blocks that produced them.
func buildMessages(history []core.Event) []anthropic.MessageParam {
	toolResponses := map[string]string{}
	for _, ev := range history {
		for _, fr := range ev.GetFunctionResponses() {
			if fr.ID == "" {
				continue
			}
			toolResponses[fr.ID] = renderFunctionResponse(fr)
		}
	}

	var messages []anthropic.MessageParam
	for _, ev := range history {
		if ev.Content == nil || ev.Content.Role == "tool" {
			continue // tool responses embedded below
		}
		switch ev.Content.Role {
		case "user":
			if content := textBlocks(ev); len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		case "assistant":
			content, callIDs := assistantBlocks(ev)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
			var results []anthropic.ContentBlockParamUnion
			for _, id := range callIDs {
				if resp, ok := toolResponses[id]; ok {
					results = append(results, anthropic.NewToolResultBlock(id, resp, false))
					delete(toolResponses, id)
				}
			}
			if len(results) > 0 {
				messages = append(messages, anthropic.NewUserMessage(results...))
			}
		}
	}
	return messages
}

func textBlocks(ev core.Event) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	if text := ev.Content.Text(); text != "" {
		content = append(content, anthropic.NewTextBlock(text))
	}
	return content
}

func assistantBlocks(ev core.Event) ([]anthropic.ContentBlockParamUnion, []string) {
	var content []anthropic.ContentBlockParamUnion
	var callIDs []string
	if text := ev.Content.Text(); text != "" {
		content = append(content, anthropic.NewTextBlock(text))
	}
	for _, fc := range ev.GetFunctionCalls() {
		var input any
		if fc.Arguments != "" {
			if err := json.Unmarshal([]byte(fc.Arguments), &input); err != nil {
				input = fc.Arguments
			}
		}
		content = append(content, anthropic.NewToolUseBlock(fc.ID, input, fc.Name))
		callIDs = append(callIDs, fc.ID)
	}
	return content, callIDs
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

// buildTools converts oracle tool definitions to the Anthropic tool format.
func buildTools(defs []oracle.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, td := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if td.Parameters != nil {
			if properties, exists := td.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			switch required := td.Parameters["required"].(type) {
			case []string:
				inputSchema.Required = required
			case []any:
				var reqStrings []string
				for _, r := range required {
					if s, ok := r.(string); ok {
						reqStrings = append(reqStrings, s)
					}
				}
				inputSchema.Required = reqStrings
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, td.Name)
	}
	return tools
}
