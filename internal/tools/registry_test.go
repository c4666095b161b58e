package tools

import (
	"context"
	"testing"
)

// mockTool 测试用工具实现
type mockTool struct {
	name        string
	description string
	tags        []string
	result      string
	err         error
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return m.description }
func (m *mockTool) Tags() []string      { return m.tags }

func (m *mockTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (m *mockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

func newTestRegistry(t *testing.T) *ToolRegistry {
	t.Helper()
	registry := NewToolRegistry()

	testTools := []*mockTool{
		{name: "clock", tags: nil},
		{name: "lookup", tags: []string{"database"}},
		{name: "probe", tags: []string{"system"}},
		{name: "search", tags: []string{"database", "web"}},
	}
	for _, tool := range testTools {
		if err := registry.RegisterTool(tool); err != nil {
			t.Fatalf("注册工具失败: %v", err)
		}
	}

	return registry
}

func TestRegisterTool(t *testing.T) {
	registry := NewToolRegistry()

	tool := &mockTool{name: "clock"}
	if err := registry.RegisterTool(tool); err != nil {
		t.Fatalf("注册工具失败: %v", err)
	}

	// 重复注册应失败
	if err := registry.RegisterTool(tool); err == nil {
		t.Error("期望重复注册返回错误")
	}

	// 空名称应失败
	if err := registry.RegisterTool(&mockTool{name: ""}); err == nil {
		t.Error("期望空名称注册返回错误")
	}

	got, err := registry.GetTool("clock")
	if err != nil {
		t.Fatalf("获取工具失败: %v", err)
	}
	if got.Name() != "clock" {
		t.Errorf("期望工具名为 'clock'，实际为 '%s'", got.Name())
	}

	if _, err := registry.GetTool("missing"); err == nil {
		t.Error("期望获取不存在的工具返回错误")
	}
}

func TestSelectToolsNilFilter(t *testing.T) {
	registry := newTestRegistry(t)

	// nil 过滤器禁用全部工具
	if defs := registry.SelectTools(nil); len(defs) != 0 {
		t.Errorf("期望选择 0 个工具，实际为 %d", len(defs))
	}
}

func TestSelectToolsAll(t *testing.T) {
	registry := newTestRegistry(t)

	defs := registry.SelectTools([]string{TagAll})
	if len(defs) != 4 {
		t.Fatalf("期望选择 4 个工具，实际为 %d", len(defs))
	}
}

func TestSelectToolsByTag(t *testing.T) {
	registry := newTestRegistry(t)

	defs := registry.SelectTools([]string{"database"})

	names := make(map[string]bool)
	for _, def := range defs {
		names[def.Name] = true
	}

	// database 标签的工具和无标签工具被选中
	for _, expected := range []string{"clock", "lookup", "search"} {
		if !names[expected] {
			t.Errorf("期望工具 '%s' 被选中", expected)
		}
	}

	// 仅持有其他标签的工具被排除
	if names["probe"] {
		t.Error("期望工具 'probe' 被排除")
	}

	if len(defs) != 3 {
		t.Errorf("期望选择 3 个工具，实际为 %d", len(defs))
	}
}

func TestSelectToolsEmptyFilter(t *testing.T) {
	registry := newTestRegistry(t)

	// 空（非 nil）过滤器只保留无标签工具
	defs := registry.SelectTools([]string{})
	if len(defs) != 1 || defs[0].Name != "clock" {
		t.Errorf("期望仅选择无标签工具 'clock'，实际为 %v", defs)
	}
}

func TestSelectToolsDeterministicOrder(t *testing.T) {
	registry := newTestRegistry(t)

	defs := registry.SelectTools([]string{TagAll})
	expected := []string{"clock", "lookup", "probe", "search"}
	for i, def := range defs {
		if def.Name != expected[i] {
			t.Errorf("期望第 %d 个工具为 '%s'，实际为 '%s'", i, expected[i], def.Name)
		}
	}
}

func TestUnregisterTool(t *testing.T) {
	registry := newTestRegistry(t)

	if err := registry.UnregisterTool("clock"); err != nil {
		t.Fatalf("注销工具失败: %v", err)
	}

	if _, err := registry.GetTool("clock"); err == nil {
		t.Error("期望注销后获取工具返回错误")
	}

	if err := registry.UnregisterTool("clock"); err == nil {
		t.Error("期望重复注销返回错误")
	}
}
