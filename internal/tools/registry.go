package tools

import (
	"fmt"
	"sort"
	"sync"

	"de-hilfer/internal/util"
)

// ToolRegistry 工具注册表
type ToolRegistry struct {
	tools map[string]Tool // 工具映射表
	mutex sync.RWMutex    // 读写锁
}

// NewToolRegistry 创建新的工具注册表
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// RegisterTool 注册工具
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	if tool == nil {
		return util.NewError(util.ErrCodeInvalidParam, "工具不能为空")
	}

	name := tool.Name()
	if name == "" {
		return util.NewError(util.ErrCodeInvalidParam, "工具名称不能为空")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// 检查是否已存在同名工具
	if _, exists := r.tools[name]; exists {
		return util.NewErrorWithDetail(util.ErrCodeInvalidParam, "工具已存在",
			fmt.Sprintf("工具名称: %s", name))
	}

	r.tools[name] = tool
	util.Infow("工具注册成功", map[string]any{
		"tool_name": name,
		"tags":      tool.Tags(),
	})

	return nil
}

// GetTool 根据名称获取工具
func (r *ToolRegistry) GetTool(name string) (Tool, error) {
	if name == "" {
		return nil, util.NewError(util.ErrCodeInvalidParam, "工具名称不能为空")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, util.NewToolNotFoundError(name)
	}

	return tool, nil
}

// GetAllTools 获取所有工具，按名称排序
func (r *ToolRegistry) GetAllTools() []Tool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})

	return tools
}

// SelectTools 按标签过滤工具定义。
// tagFilter 为 nil 时禁用全部工具；包含 TagAll 时选择全部工具；
// 否则选择标签集合与 {请求标签} ∪ {空标签} 有交集的工具。
// 无标签的工具视为持有空标签，因此永远不会被过滤掉。
func (r *ToolRegistry) SelectTools(tagFilter []string) []ToolDefinition {
	if tagFilter == nil {
		return nil
	}

	allTools := r.GetAllTools()

	selectAll := false
	requested := make(map[string]bool, len(tagFilter)+1)
	for _, tag := range tagFilter {
		if tag == TagAll {
			selectAll = true
		}
		requested[tag] = true
	}
	requested[TagAlways] = true

	definitions := make([]ToolDefinition, 0, len(allTools))
	for _, tool := range allTools {
		if !selectAll && !tagsIntersect(tool.Tags(), requested) {
			continue
		}
		definitions = append(definitions, ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
			Tags:        tool.Tags(),
		})
	}

	return definitions
}

// tagsIntersect 判断工具标签是否与请求标签集合有交集
func tagsIntersect(toolTags []string, requested map[string]bool) bool {
	if len(toolTags) == 0 {
		// 无标签等同于空标签
		return requested[TagAlways]
	}
	for _, tag := range toolTags {
		if requested[tag] {
			return true
		}
	}
	return false
}

// GetToolDefinitions 获取所有工具定义，按名称排序
func (r *ToolRegistry) GetToolDefinitions() []ToolDefinition {
	allTools := r.GetAllTools()

	definitions := make([]ToolDefinition, 0, len(allTools))
	for _, tool := range allTools {
		definitions = append(definitions, ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
			Tags:        tool.Tags(),
		})
	}

	return definitions
}

// UnregisterTool 注销工具
func (r *ToolRegistry) UnregisterTool(name string) error {
	if name == "" {
		return util.NewError(util.ErrCodeInvalidParam, "工具名称不能为空")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tools[name]; !exists {
		return util.NewToolNotFoundError(name)
	}

	delete(r.tools, name)
	util.Infow("工具注销成功", map[string]any{
		"tool_name": name,
	})

	return nil
}
