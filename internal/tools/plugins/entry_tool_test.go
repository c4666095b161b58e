package plugins

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"de-hilfer/internal/dictionary"
)

func newTestEntryTool(t *testing.T) *EntryDetailsTool {
	t.Helper()

	content := `[
  {
    "query_text": "gehen",
    "analysis_markdown": "## gehen\n动词：走、去",
    "aliases": ["ging", "gegangen"]
  }
]`

	path := filepath.Join(t.TempDir(), "dictionary.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("创建测试词典失败: %v", err)
	}

	store, err := dictionary.NewFileStore(path)
	if err != nil {
		t.Fatalf("加载词典失败: %v", err)
	}

	return NewEntryDetailsTool(store)
}

func TestEntryDetailsToolHit(t *testing.T) {
	tool := newTestEntryTool(t)

	result, err := tool.Execute(context.Background(), map[string]any{
		"query_text": "gegangen",
	})
	if err != nil {
		t.Fatalf("执行工具失败: %v", err)
	}

	var parsed map[string]string
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("解析工具结果失败: %v", err)
	}

	if parsed["query_text"] != "gehen" {
		t.Errorf("期望别名命中词条 'gehen'，实际为 '%s'", parsed["query_text"])
	}
	if parsed["analysis_markdown"] == "" {
		t.Error("期望返回分析结果")
	}
}

func TestEntryDetailsToolMiss(t *testing.T) {
	tool := newTestEntryTool(t)

	result, err := tool.Execute(context.Background(), map[string]any{
		"query_text": "unbekannt",
	})
	if err != nil {
		t.Fatalf("执行工具失败: %v", err)
	}

	if result != "null" {
		t.Errorf("期望未命中返回 'null'，实际为 '%s'", result)
	}
}

func TestEntryDetailsToolMissingParam(t *testing.T) {
	tool := newTestEntryTool(t)

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("期望缺少 query_text 参数时返回错误")
	}
}

func TestClockTool(t *testing.T) {
	tool := NewClockTool()

	result, err := tool.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("执行工具失败: %v", err)
	}
	if result == "" {
		t.Error("期望返回非空时间戳")
	}

	if len(tool.Tags()) != 0 {
		t.Errorf("期望时间工具无标签，实际为 %v", tool.Tags())
	}
}
