package tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"de-hilfer/internal/util"
)

// ToolFactory 工具工厂函数类型
type ToolFactory func() Tool

// ToolManager 工具管理器接口
type ToolManager interface {
	// RegisterTool 注册工具
	RegisterTool(tool Tool) error

	// RegisterToolFactory 注册工具工厂，在 InitializeTools 时实例化
	RegisterToolFactory(name string, factory ToolFactory)

	// InitializeTools 实例化并注册所有工厂创建的工具
	InitializeTools() error

	// GetTools 获取所有工具
	GetTools() []Tool

	// GetTool 根据名称获取工具
	GetTool(name string) (Tool, error)

	// SelectTools 按标签过滤工具定义
	SelectTools(tagFilter []string) []ToolDefinition

	// ExecuteToolCall 执行工具调用
	ExecuteToolCall(ctx context.Context, call ToolCall) (string, error)

	// GetToolDefinitions 获取工具定义列表
	GetToolDefinitions() []ToolDefinition
}

// DefaultToolManager 默认工具管理器实现
type DefaultToolManager struct {
	registry  *ToolRegistry // 工具注册表
	factories map[string]ToolFactory
	mutex     sync.Mutex
}

// DefaultManager 全局工具管理器实例，插件包在 init() 中向其注册工厂
var DefaultManager = NewToolManager()

// NewToolManager 创建新的工具管理器
func NewToolManager() ToolManager {
	return &DefaultToolManager{
		registry:  NewToolRegistry(),
		factories: make(map[string]ToolFactory),
	}
}

// RegisterTool 注册工具
func (m *DefaultToolManager) RegisterTool(tool Tool) error {
	return m.registry.RegisterTool(tool)
}

// RegisterToolFactory 注册工具工厂
func (m *DefaultToolManager) RegisterToolFactory(name string, factory ToolFactory) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.factories[name] = factory
	util.Debugw("工具工厂已注册", map[string]any{
		"factory_name": name,
	})
}

// InitializeTools 实例化并注册所有工厂创建的工具
func (m *DefaultToolManager) InitializeTools() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, factory := range m.factories {
		tool := factory()
		if tool == nil {
			util.Warnw("工具工厂返回空实例", map[string]any{
				"factory_name": name,
			})
			continue
		}
		if err := m.registry.RegisterTool(tool); err != nil {
			// 重复注册不视为致命错误
			if util.IsErrorCode(err, util.ErrCodeInvalidParam) &&
				strings.Contains(err.Error(), "工具已存在") {
				continue
			}
			return err
		}
	}

	return nil
}

// GetTools 获取所有工具
func (m *DefaultToolManager) GetTools() []Tool {
	return m.registry.GetAllTools()
}

// GetTool 根据名称获取工具
func (m *DefaultToolManager) GetTool(name string) (Tool, error) {
	return m.registry.GetTool(name)
}

// SelectTools 按标签过滤工具定义
func (m *DefaultToolManager) SelectTools(tagFilter []string) []ToolDefinition {
	return m.registry.SelectTools(tagFilter)
}

// GetToolDefinitions 获取工具定义列表
func (m *DefaultToolManager) GetToolDefinitions() []ToolDefinition {
	return m.registry.GetToolDefinitions()
}

// ExecuteToolCall 执行工具调用
func (m *DefaultToolManager) ExecuteToolCall(ctx context.Context, call ToolCall) (string, error) {
	startTime := time.Now()

	// 记录工具调用开始
	util.Infow("开始执行工具调用", map[string]any{
		"tool_name": call.Name,
		"call_id":   call.ID,
	})

	// 获取工具
	tool, err := m.registry.GetTool(call.Name)
	if err != nil {
		util.LogErrorWithFields(err, "工具获取失败", map[string]any{
			"tool_name": call.Name,
			"call_id":   call.ID,
		})
		return "", err
	}

	// 解析调用参数
	args := map[string]any{}
	if strings.TrimSpace(call.ArgumentsJSON) != "" {
		if err := json.Unmarshal([]byte(call.ArgumentsJSON), &args); err != nil {
			parseErr := util.WrapError(util.ErrCodeToolArgsInvalid, "工具调用参数解析失败", err)
			util.LogErrorWithFields(parseErr, "工具参数无效", map[string]any{
				"tool_name": call.Name,
				"call_id":   call.ID,
			})
			return "", parseErr
		}
	}

	// 执行工具
	result, err := tool.Execute(ctx, args)
	executionTime := time.Since(startTime)

	if err != nil {
		// 记录执行失败
		util.LogErrorWithFields(err, "工具执行失败", map[string]any{
			"tool_name":      call.Name,
			"call_id":        call.ID,
			"execution_time": executionTime,
		})

		return "", util.NewToolExecutionError(call.Name, err)
	}

	// 记录执行成功
	util.Infow("工具执行成功", map[string]any{
		"tool_name":      call.Name,
		"call_id":        call.ID,
		"execution_time": executionTime,
		"result_length":  len(result),
	})

	return result, nil
}
