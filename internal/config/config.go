package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// 全局配置实例
var Config *AppConfig

// 应用配置结构
type AppConfig struct {
	LLM        LLMConfig        `toml:"llm"`
	Prompts    PromptsConfig    `toml:"prompts"`
	Agent      AgentConfig      `toml:"agent"`
	Dictionary DictionaryConfig `toml:"dictionary"`
	Logging    LoggingConfig    `toml:"logging"`
	MCP        MCPConfig        `toml:"mcp"`
}

// LLM配置
type LLMConfig struct {
	Models  map[string]ModelConfig `toml:"models"`
	Timeout int                    `toml:"timeout"` // 超时时间（秒）
}

// 模型配置
type ModelConfig struct {
	Provider  string      `toml:"provider"` // "gemini"、"openai" 或 "ollama"
	Enabled   bool        `toml:"enabled"`
	Priority  int         `toml:"priority"` // 数值越小越先尝试
	APIKeyEnv string      `toml:"api_key_env"`
	BaseURL   string      `toml:"base_url"`
	Params    ModelParams `toml:"params"`
}

// 模型参数
type ModelParams struct {
	ModelList            []string `toml:"model_list"`
	ModelUse             int      `toml:"model_use"` // model_list 中默认使用的下标
	Temperature          float64  `toml:"temperature"`
	VisionCapableIndices []int    `toml:"vision_capable_indices"`
}

// APIKey 从环境变量解析API密钥
func (m ModelConfig) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// ModelName 返回指定下标的模型名称，越界时回退到默认下标
func (p ModelParams) ModelName(modelUse int) string {
	if len(p.ModelList) == 0 {
		return ""
	}
	if modelUse < 0 || modelUse >= len(p.ModelList) {
		modelUse = p.ModelUse
	}
	if modelUse < 0 || modelUse >= len(p.ModelList) {
		modelUse = 0
	}
	return p.ModelList[modelUse]
}

// VisionCapable 判断指定下标的模型是否支持图像输入
func (p ModelParams) VisionCapable(modelUse int) bool {
	for _, idx := range p.VisionCapableIndices {
		if idx == modelUse {
			return true
		}
	}
	return false
}

// 提示词模板配置
type PromptsConfig struct {
	System                  string `toml:"system"`
	SpellChecker            string `toml:"spell_checker"`
	PrototypeIdentification string `toml:"prototype_identification"`
	Analysis                string `toml:"analysis"`
	FollowUp                string `toml:"follow_up"`
	IntelligentSearch       string `toml:"intelligent_search"`
}

// Get 按名称获取提示词模板
func (p PromptsConfig) Get(name string) (string, bool) {
	switch name {
	case "system":
		return p.System, p.System != ""
	case "spell_checker":
		return p.SpellChecker, p.SpellChecker != ""
	case "prototype_identification":
		return p.PrototypeIdentification, p.PrototypeIdentification != ""
	case "analysis":
		return p.Analysis, p.Analysis != ""
	case "follow_up":
		return p.FollowUp, p.FollowUp != ""
	case "intelligent_search":
		return p.IntelligentSearch, p.IntelligentSearch != ""
	}
	return "", false
}

// 代理循环配置
type AgentConfig struct {
	MaxTurns int `toml:"max_turns"` // 单次运行允许的最大推理轮数
}

// 词典配置
type DictionaryConfig struct {
	Path string `toml:"path"` // 词典数据文件路径
}

// 日志配置
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
	Output string `toml:"output"` // stdout, stderr, file
	File   string `toml:"file"`   // 日志文件路径
}

// MCP配置
type MCPConfig struct {
	Servers map[string]MCPServerConfig `toml:"servers"`
}

// MCP服务器配置
type MCPServerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Env     []string `toml:"env"`
}

// 加载配置文件
func LoadConfig(configPath string) error {
	// 如果没有指定配置文件路径，使用默认路径
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 检查配置文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// 创建默认配置文件
		if err := createDefaultConfig(configPath); err != nil {
			return fmt.Errorf("创建默认配置文件失败: %w", err)
		}
		fmt.Printf("已创建默认配置文件: %s\n", configPath)
	}

	// 解析TOML配置文件
	var config AppConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 使用环境变量覆盖配置
	overrideWithEnv(&config)

	// 填充默认值
	applyDefaults(&config)

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	// 设置全局配置
	Config = &config
	return nil
}

// 获取默认配置文件路径
func getDefaultConfigPath() string {
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}

	return filepath.Join(homeDir, ".de-hilfer", "config.toml")
}

// 创建默认配置文件
func createDefaultConfig(configPath string) error {
	// 确保目录存在
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// 默认配置内容
	defaultConfig := `# De-Hilfer 配置文件

[llm]
timeout = 60

[llm.models.gemini]
provider = "gemini"
enabled = true
priority = 0
api_key_env = "GEMINI_API_KEY"
base_url = "https://generativelanguage.googleapis.com/v1beta"

[llm.models.gemini.params]
model_list = ["gemini-2.0-flash", "gemini-1.5-pro"]
model_use = 0
temperature = 0.7
vision_capable_indices = [0, 1]

[llm.models.openai]
provider = "openai"
enabled = true
priority = 1
api_key_env = "OPENAI_API_KEY"
base_url = "https://api.openai.com/v1"

[llm.models.openai.params]
model_list = ["gpt-4o-mini", "gpt-4o"]
model_use = 0
temperature = 0.7
vision_capable_indices = [0, 1]

[llm.models.ollama]
provider = "ollama"
enabled = false
priority = 2
base_url = "http://localhost:11434/v1"

[llm.models.ollama.params]
model_list = ["qwen2.5:7b"]
model_use = 0
temperature = 0.7
vision_capable_indices = []

[prompts]
system = "Du bist De-Hilfer, ein Assistent für deutsche Vokabeln. Antworte präzise und nutze bei Bedarf die verfügbaren Werkzeuge."
spell_checker = "Prüfe die Rechtschreibung des folgenden deutschen Wortes und gib nur die korrigierte Form zurück."
prototype_identification = "Bestimme die Grundform (Lemma) des folgenden deutschen Wortes und gib nur diese zurück."
analysis = "Analysiere das folgende deutsche Wort: Wortart, Bedeutung, Beispielsätze. Antworte als Markdown."
follow_up = "Beantworte die Rückfrage des Nutzers im Kontext des zuletzt analysierten Wortes."
intelligent_search = "Suche im Wörterbuch nach dem passendsten Eintrag für die Anfrage des Nutzers."

[agent]
max_turns = 5

[dictionary]
path = ""

[logging]
level = "info"
format = "text"
output = "stdout"
file = ""

# [mcp.servers.example]
# command = "npx"
# args = ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
`

	return os.WriteFile(configPath, []byte(defaultConfig), 0644)
}

// 使用环境变量覆盖配置
func overrideWithEnv(config *AppConfig) {
	// 模型配置
	for name, model := range config.LLM.Models {
		if baseURL := getEnvForModel(name, "BASE_URL"); baseURL != "" {
			model.BaseURL = baseURL
			config.LLM.Models[name] = model
		}
		if keyEnv := getEnvForModel(name, "API_KEY_ENV"); keyEnv != "" {
			model.APIKeyEnv = keyEnv
			config.LLM.Models[name] = model
		}
	}

	// 词典路径
	if path := os.Getenv("DE_HILFER_DICTIONARY"); path != "" {
		config.Dictionary.Path = path
	}

	// 日志配置
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// 获取模型相关的环境变量
func getEnvForModel(modelName, suffix string) string {
	envNames := []string{
		fmt.Sprintf("%s_%s", strings.ToUpper(modelName), suffix),
		fmt.Sprintf("DE_HILFER_%s_%s", strings.ToUpper(modelName), suffix),
	}

	for _, envName := range envNames {
		if value := os.Getenv(envName); value != "" {
			return value
		}
	}

	return ""
}

// 填充默认值
func applyDefaults(config *AppConfig) {
	if config.LLM.Timeout <= 0 {
		config.LLM.Timeout = 60
	}
	if config.Agent.MaxTurns <= 0 {
		config.Agent.MaxTurns = 5
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Output == "" {
		config.Logging.Output = "stdout"
	}
}

// 验证配置
func validateConfig(config *AppConfig) error {
	if len(config.LLM.Models) == 0 {
		return fmt.Errorf("未配置任何模型")
	}

	hasEnabled := false
	for name, model := range config.LLM.Models {
		switch model.Provider {
		case "gemini", "openai", "ollama":
		default:
			return fmt.Errorf("模型 '%s' 的提供方 '%s' 不受支持", name, model.Provider)
		}

		if model.Priority < 0 {
			return fmt.Errorf("模型 '%s' 的优先级不能为负数", name)
		}

		if !model.Enabled {
			continue
		}
		hasEnabled = true

		if len(model.Params.ModelList) == 0 {
			return fmt.Errorf("模型 '%s' 已启用但未配置 model_list", name)
		}
		if model.Params.ModelUse < 0 || model.Params.ModelUse >= len(model.Params.ModelList) {
			return fmt.Errorf("模型 '%s' 的 model_use 下标越界: %d", name, model.Params.ModelUse)
		}
		for _, idx := range model.Params.VisionCapableIndices {
			if idx < 0 || idx >= len(model.Params.ModelList) {
				return fmt.Errorf("模型 '%s' 的 vision_capable_indices 包含越界下标: %d", name, idx)
			}
		}
	}

	if !hasEnabled {
		return fmt.Errorf("至少需要启用一个模型")
	}

	// 验证日志级别
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("无效的日志级别: %s", config.Logging.Level)
	}

	return nil
}

// 获取当前配置
func GetConfig() *AppConfig {
	return Config
}

// 获取指定模型的配置
func GetModelConfig(modelName string) (ModelConfig, error) {
	if Config == nil {
		return ModelConfig{}, fmt.Errorf("配置未初始化")
	}

	model, exists := Config.LLM.Models[modelName]
	if !exists {
		return ModelConfig{}, fmt.Errorf("模型 '%s' 未配置", modelName)
	}

	return model, nil
}
