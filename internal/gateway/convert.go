package gateway

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// schemaMap renders an MCP input schema as a plain JSON Schema object.
func schemaMap(s mcp.ToolInputSchema) map[string]any {
	out := map[string]any{
		"type":       s.Type,
		"properties": s.Properties,
	}
	if out["type"] == "" {
		out["type"] = "object"
	}
	if s.Properties == nil {
		out["properties"] = map[string]any{}
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Defs != nil {
		out["$defs"] = s.Defs
	}
	return out
}

func geminiTools(tools []mcp.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schemaMap(t.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func openAITools(tools []mcp.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(schemaMap(t.InputSchema)),
		})
	}
	return out
}

func anthropicTools(tools []mcp.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: t.InputSchema.Properties}
		if len(t.InputSchema.Required) > 0 {
			schema.Required = t.InputSchema.Required
		}
		if t.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": t.InputSchema.Defs}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, t.Name)
		if t.Description != "" {
			out[i].OfTool.Description = anthropic.String(t.Description)
		}
	}
	return out
}

func ollamaTools(tools []mcp.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		params := api.ToolFunctionParameters{
			Type:       t.InputSchema.Type,
			Required:   t.InputSchema.Required,
			Properties: make(map[string]api.ToolProperty, len(t.InputSchema.Properties)),
		}
		if params.Type == "" {
			params.Type = "object"
		}
		for name, prop := range t.InputSchema.Properties {
			params.Properties[name] = ollamaProperty(prop)
		}
		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func ollamaProperty(v any) api.ToolProperty {
	var prop api.ToolProperty
	m, ok := v.(map[string]any)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil || json.Unmarshal(b, &m) != nil {
			return prop
		}
	}
	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	}
	if d, ok := m["description"].(string); ok {
		prop.Description = d
	}
	switch e := m["enum"].(type) {
	case []any:
		prop.Enum = e
	case []string:
		for _, s := range e {
			prop.Enum = append(prop.Enum, s)
		}
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	return prop
}
