package tools

import (
	"context"
)

// TagAll 特殊标签，选择全部已注册工具
const TagAll = "all"

// TagAlways 空标签，标记始终可用的工具，不受过滤影响
const TagAlways = ""

// Tool 工具接口定义
type Tool interface {
	// Name 返回工具的名称
	Name() string

	// Description 获取工具描述
	Description() string

	// Parameters 获取工具参数schema
	Parameters() map[string]any

	// Tags 返回工具的标签集合，空集合视为始终可用
	Tags() []string

	// Execute 执行工具
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolDefinition 工具定义结构
type ToolDefinition struct {
	Name        string         `json:"name"`        // 工具名称
	Description string         `json:"description"` // 工具描述
	Parameters  map[string]any `json:"parameters"`  // 参数schema
	Tags        []string       `json:"tags"`        // 标签集合
}

// ToolCall 工具调用结构
type ToolCall struct {
	ID            string `json:"id"`             // 调用ID
	Name          string `json:"name"`           // 工具名称
	ArgumentsJSON string `json:"arguments_json"` // 调用参数（原始JSON文本）
}
