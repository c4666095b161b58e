package llm

import (
	"context"
	"sort"
	"sync"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// Router 持有按优先级排序的适配器链，提供故障转移问询和会话分发。
// 适配器链在构造后只读，可被全部并发会话安全共享。
type Router struct {
	adapters []Adapter
	prompts  config.PromptsConfig
	maxTurns int
	manager  tools.ToolManager
	sessions sync.Map // 会话ID -> *Session
}

// NewRouter 从配置构建路由器。每个启用的模型配置项构造一个适配器；
// 初始化失败的适配器被记录并排除，绝不进入故障转移链。
func NewRouter(cfg *config.AppConfig, manager tools.ToolManager) (*Router, error) {
	if cfg == nil {
		return nil, util.NewError(util.ErrCodeConfigInvalid, "配置未初始化")
	}
	if len(cfg.LLM.Models) == 0 {
		return nil, util.NewError(util.ErrCodeConfigInvalid, "未配置任何模型")
	}

	router := &Router{
		prompts:  cfg.Prompts,
		maxTurns: cfg.Agent.MaxTurns,
		manager:  manager,
	}

	for name, modelCfg := range cfg.LLM.Models {
		if !modelCfg.Enabled {
			continue
		}

		adapter := newAdapter(name, modelCfg, manager)
		if adapter == nil {
			return nil, util.NewErrorWithDetail(util.ErrCodeConfigInvalid,
				"不支持的提供方", modelCfg.Provider)
		}

		if !adapter.Functional() {
			util.Warnw("适配器初始化失败，从故障转移链中排除", map[string]any{
				"name":     name,
				"provider": modelCfg.Provider,
				"error":    adapter.InitError().Error(),
			})
			continue
		}

		router.adapters = append(router.adapters, adapter)
	}

	// 按优先级升序排序，数值越小越先尝试；同优先级按名称保证确定性
	sort.Slice(router.adapters, func(i, j int) bool {
		if router.adapters[i].Priority() != router.adapters[j].Priority() {
			return router.adapters[i].Priority() < router.adapters[j].Priority()
		}
		return router.adapters[i].Name() < router.adapters[j].Name()
	})

	if len(router.adapters) == 0 {
		util.Warn("没有可用的适配器，所有问询都将失败")
	} else {
		names := make([]string, len(router.adapters))
		for i, a := range router.adapters {
			names[i] = a.Name()
		}
		util.Infow("故障转移链构建完成", map[string]any{
			"adapters": names,
		})
	}

	return router, nil
}

// newAdapter 按提供方类型构造适配器
func newAdapter(name string, cfg config.ModelConfig, manager tools.ToolManager) Adapter {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiAdapter(name, cfg, manager)
	case "openai":
		return NewOpenAIAdapter(name, cfg, manager)
	case "ollama":
		return NewOllamaAdapter(name, cfg, manager)
	default:
		return nil
	}
}

// Adapters 返回按优先级排序的适配器链
func (r *Router) Adapters() []Adapter {
	return r.adapters
}

// MaxTurns 返回配置的代理循环轮数上限
func (r *Router) MaxTurns() int {
	return r.maxTurns
}

// Prompt 按名称获取配置的提示词模板
func (r *Router) Prompt(name string) (string, bool) {
	return r.prompts.Get(name)
}

// AskWithFailover 按优先级依次尝试每个适配器。
// 首个返回非空响应的适配器立即胜出；调用出错的适配器被记录并跳过；
// 全部失败或链为空时返回 nil。
func (r *Router) AskWithFailover(ctx context.Context, history *History, opts ChatOptions) *Message {
	for _, adapter := range r.adapters {
		response, err := adapter.Chat(ctx, history, opts)
		if err != nil {
			util.Warnw("适配器调用失败，尝试下一个", map[string]any{
				"name":     adapter.Name(),
				"provider": adapter.Provider(),
				"error":    err.Error(),
			})
			continue
		}
		if response == nil {
			util.Debugw("适配器未返回可用内容，尝试下一个", map[string]any{
				"name": adapter.Name(),
			})
			continue
		}

		util.Debugw("适配器问询成功", map[string]any{
			"name": adapter.Name(),
		})
		return response
	}

	util.Warn("所有适配器均未产生响应")
	return nil
}

// GetSession 创建一个新会话并注册在指定 ID 下。
// 会话总是新建而非复用，以保证每个会话可以使用不同的系统提示词。
func (r *Router) GetSession(id, systemPromptOverride string) *Session {
	prompt := systemPromptOverride
	if prompt == "" {
		prompt = r.prompts.System
	}

	session := NewSession(id, prompt, r)
	r.sessions.Store(id, session)

	util.Debugw("会话已创建", map[string]any{
		"session_id": id,
	})

	return session
}

// LookupSession 按 ID 查找已注册的会话
func (r *Router) LookupSession(id string) (*Session, bool) {
	value, exists := r.sessions.Load(id)
	if !exists {
		return nil, false
	}
	return value.(*Session), true
}
