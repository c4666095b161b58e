package tools

// PackTools 将工具定义序列化为指定提供方的函数调用格式。
// OpenAI 与 Ollama 共用同一种函数描述结构；Gemini 使用嵌套的
// functionDeclarations 结构；未知提供方返回 nil 而非错误。
func PackTools(providerKind string, defs []ToolDefinition) []map[string]any {
	if len(defs) == 0 {
		return nil
	}

	switch providerKind {
	case "openai", "ollama":
		packed := make([]map[string]any, len(defs))
		for i, def := range defs {
			packed[i] = map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        def.Name,
					"description": def.Description,
					"parameters":  def.Parameters,
				},
			}
		}
		return packed

	case "gemini":
		declarations := make([]map[string]any, len(defs))
		for i, def := range defs {
			declarations[i] = map[string]any{
				"name":        def.Name,
				"description": def.Description,
				"parameters":  def.Parameters,
			}
		}
		return []map[string]any{
			{"functionDeclarations": declarations},
		}

	default:
		return nil
	}
}
