package llm

import (
	"context"
	"sync"
	"time"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
)

// ChatOptions 单次调用的覆盖项，未设置的字段回退到适配器的配置默认值。
// ToolTags 为 nil 时本次调用禁用全部工具。
type ChatOptions struct {
	ModelUse    *int
	Temperature *float64
	ToolTags    []string
}

// Adapter 统一的模型后端接口。
// Chat 返回 (nil, nil) 表示后端未产生可用内容；传输或后端错误
// 原样向上传递，由路由器负责降级到下一个后端。
type Adapter interface {
	// Name 返回配置中的模型名称
	Name() string

	// Provider 返回后端类型（gemini / openai / ollama）
	Provider() string

	// Priority 返回故障转移顺序，数值越小越先尝试
	Priority() int

	// Functional 返回适配器初始化是否成功
	Functional() bool

	// InitError 返回初始化失败的原因，成功时为 nil
	InitError() error

	// Chat 发送当前会话历史并返回解包后的助手消息
	Chat(ctx context.Context, history *History, opts ChatOptions) (*Message, error)
}

// AdapterMetrics 适配器运行指标
type AdapterMetrics struct {
	RequestCount        int64  `json:"request_count"`
	ErrorCount          int64  `json:"error_count"`
	AverageResponseTime int64  `json:"average_response_time"`
	LastRequestTime     int64  `json:"last_request_time"`
	LastError           string `json:"last_error,omitempty"`
}

// BaseAdapter 基础适配器实现，提供各后端共用的配置解析与指标统计
type BaseAdapter struct {
	name     string
	provider string
	cfg      config.ModelConfig
	manager  tools.ToolManager

	functional bool
	initErr    error

	metrics AdapterMetrics
	mu      sync.RWMutex
}

// NewBaseAdapter 创建基础适配器
func NewBaseAdapter(name, provider string, cfg config.ModelConfig, manager tools.ToolManager) *BaseAdapter {
	return &BaseAdapter{
		name:     name,
		provider: provider,
		cfg:      cfg,
		manager:  manager,
	}
}

// Name 返回配置中的模型名称
func (b *BaseAdapter) Name() string { return b.name }

// Provider 返回后端类型
func (b *BaseAdapter) Provider() string { return b.provider }

// Priority 返回故障转移顺序
func (b *BaseAdapter) Priority() int { return b.cfg.Priority }

// Functional 返回初始化是否成功
func (b *BaseAdapter) Functional() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.functional
}

// InitError 返回初始化失败的原因
func (b *BaseAdapter) InitError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initErr
}

// markFunctional 标记初始化成功
func (b *BaseAdapter) markFunctional() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.functional = true
	b.initErr = nil
}

// markBroken 标记初始化失败，适配器保留但被路由器排除
func (b *BaseAdapter) markBroken(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.functional = false
	b.initErr = err
}

// resolveModel 解析本次调用使用的模型名称
func (b *BaseAdapter) resolveModel(opts ChatOptions) string {
	modelUse := b.cfg.Params.ModelUse
	if opts.ModelUse != nil {
		modelUse = *opts.ModelUse
	}
	return b.cfg.Params.ModelName(modelUse)
}

// resolveTemperature 解析本次调用使用的温度
func (b *BaseAdapter) resolveTemperature(opts ChatOptions) float64 {
	if opts.Temperature != nil {
		return *opts.Temperature
	}
	return b.cfg.Params.Temperature
}

// selectTools 解析本次调用启用的工具定义
func (b *BaseAdapter) selectTools(opts ChatOptions) []tools.ToolDefinition {
	if b.manager == nil {
		return nil
	}
	return b.manager.SelectTools(opts.ToolTags)
}

// requestTimeout 返回请求超时配置
func (b *BaseAdapter) requestTimeout() time.Duration {
	if config.Config != nil && config.Config.LLM.Timeout > 0 {
		return time.Duration(config.Config.LLM.Timeout) * time.Second
	}
	return 60 * time.Second
}

// UpdateMetrics 更新运行指标
func (b *BaseAdapter) UpdateMetrics(responseTime int64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.RequestCount++
	b.metrics.LastRequestTime = time.Now().Unix()

	if !success {
		b.metrics.ErrorCount++
	}

	// 增量平均：avg_n = avg_{n-1} + (x_n - avg_{n-1}) / n
	n := b.metrics.RequestCount
	if n == 1 {
		b.metrics.AverageResponseTime = responseTime
	} else {
		diff := responseTime - b.metrics.AverageResponseTime
		b.metrics.AverageResponseTime = b.metrics.AverageResponseTime + diff/int64(n)
	}
}

// RecordError 记录最近一次错误
func (b *BaseAdapter) RecordError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.metrics.LastError = err.Error()
	}
}

// GetMetrics 获取运行指标
func (b *BaseAdapter) GetMetrics() AdapterMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}
