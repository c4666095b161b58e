package tools

import (
	"testing"
)

func testDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_current_time",
			Description: "获取当前时间",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_entry_details",
			Description: "查询词典条目",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query_text": map[string]any{"type": "string"},
				},
				"required": []string{"query_text"},
			},
		},
	}
}

func TestPackToolsOpenAIStyle(t *testing.T) {
	for _, provider := range []string{"openai", "ollama"} {
		packed := PackTools(provider, testDefinitions())
		if len(packed) != 2 {
			t.Fatalf("[%s] 期望 2 个工具定义，实际为 %d", provider, len(packed))
		}

		for _, entry := range packed {
			if entry["type"] != "function" {
				t.Errorf("[%s] 期望 type 为 'function'，实际为 '%v'", provider, entry["type"])
			}
			fn, ok := entry["function"].(map[string]any)
			if !ok {
				t.Fatalf("[%s] 期望 function 为嵌套对象", provider)
			}
			if fn["name"] == "" {
				t.Errorf("[%s] 期望 function.name 非空", provider)
			}
		}
	}
}

func TestPackToolsGemini(t *testing.T) {
	packed := PackTools("gemini", testDefinitions())
	if len(packed) != 1 {
		t.Fatalf("期望 1 个顶层工具对象，实际为 %d", len(packed))
	}

	declarations, ok := packed[0]["functionDeclarations"].([]map[string]any)
	if !ok {
		t.Fatal("期望 functionDeclarations 为声明数组")
	}
	if len(declarations) != 2 {
		t.Fatalf("期望 2 个函数声明，实际为 %d", len(declarations))
	}
	if declarations[0]["name"] != "get_current_time" {
		t.Errorf("期望首个声明为 'get_current_time'，实际为 '%v'", declarations[0]["name"])
	}
}

func TestPackToolsUnknownProvider(t *testing.T) {
	if packed := PackTools("unknown", testDefinitions()); packed != nil {
		t.Errorf("期望未知提供方返回 nil，实际为 %v", packed)
	}
}

func TestPackToolsEmpty(t *testing.T) {
	if packed := PackTools("openai", nil); packed != nil {
		t.Errorf("期望空定义返回 nil，实际为 %v", packed)
	}
}
