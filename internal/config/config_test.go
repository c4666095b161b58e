package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.toml")

	configContent := `
[llm]
timeout = 30

[llm.models.gemini]
provider = "gemini"
enabled = true
priority = 0
api_key_env = "TEST_GEMINI_KEY"
base_url = "https://test.gemini.api"

[llm.models.gemini.params]
model_list = ["gemini-test-a", "gemini-test-b"]
model_use = 1
temperature = 0.3
vision_capable_indices = [0]

[llm.models.ollama]
provider = "ollama"
enabled = false
priority = 2
base_url = "http://localhost:11434/v1"

[prompts]
system = "Testsystem"
spell_checker = "Testprüfung"

[agent]
max_turns = 3

[logging]
level = "debug"
format = "json"
output = "stdout"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("创建测试配置文件失败: %v", err)
	}

	// 测试加载配置
	err = LoadConfig(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 验证配置值
	if Config.LLM.Timeout != 30 {
		t.Errorf("期望超时时间为 30，实际为 %d", Config.LLM.Timeout)
	}

	gemini := Config.LLM.Models["gemini"]
	if gemini.Priority != 0 {
		t.Errorf("期望优先级为 0，实际为 %d", gemini.Priority)
	}

	if gemini.Params.ModelName(-1) != "gemini-test-b" {
		t.Errorf("期望默认模型为 'gemini-test-b'，实际为 '%s'", gemini.Params.ModelName(-1))
	}

	if Config.Agent.MaxTurns != 3 {
		t.Errorf("期望最大轮数为 3，实际为 %d", Config.Agent.MaxTurns)
	}

	if Config.Logging.Level != "debug" {
		t.Errorf("期望日志级别为 'debug'，实际为 '%s'", Config.Logging.Level)
	}

	prompt, ok := Config.Prompts.Get("spell_checker")
	if !ok || prompt != "Testprüfung" {
		t.Errorf("期望提示词为 'Testprüfung'，实际为 '%s'", prompt)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tmpDir := t.TempDir()

	testCases := []struct {
		name    string
		content string
	}{
		{
			"不支持的提供方",
			`
[llm.models.bad]
provider = "anthropic"
enabled = true
priority = 0

[llm.models.bad.params]
model_list = ["x"]
`,
		},
		{
			"model_use越界",
			`
[llm.models.bad]
provider = "openai"
enabled = true
priority = 0

[llm.models.bad.params]
model_list = ["x"]
model_use = 3
`,
		},
		{
			"无启用模型",
			`
[llm.models.off]
provider = "openai"
enabled = false
priority = 0
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, tc.name+".toml")
			if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
				t.Fatalf("创建测试配置文件失败: %v", err)
			}

			if err := LoadConfig(configPath); err == nil {
				t.Error("期望配置验证失败，实际成功")
			}
		})
	}
}

func TestModelParams(t *testing.T) {
	params := ModelParams{
		ModelList:            []string{"a", "b", "c"},
		ModelUse:             1,
		VisionCapableIndices: []int{0, 2},
	}

	if params.ModelName(2) != "c" {
		t.Errorf("期望模型为 'c'，实际为 '%s'", params.ModelName(2))
	}

	if params.ModelName(99) != "b" {
		t.Errorf("期望越界下标回退到默认模型 'b'，实际为 '%s'", params.ModelName(99))
	}

	if !params.VisionCapable(0) {
		t.Error("期望下标 0 支持图像输入")
	}

	if params.VisionCapable(1) {
		t.Error("期望下标 1 不支持图像输入")
	}
}

func TestGetModelConfig(t *testing.T) {
	// 设置测试配置
	Config = &AppConfig{
		LLM: LLMConfig{
			Models: map[string]ModelConfig{
				"test_model": {
					Provider:  "openai",
					Enabled:   true,
					Priority:  1,
					APIKeyEnv: "TEST_MODEL_KEY",
					BaseURL:   "https://test.api.com",
				},
			},
		},
	}

	model, err := GetModelConfig("test_model")
	if err != nil {
		t.Fatalf("获取指定模型配置失败: %v", err)
	}

	if model.Provider != "openai" {
		t.Errorf("期望提供方为 'openai'，实际为 '%s'", model.Provider)
	}

	// 测试获取不存在的模型配置
	_, err = GetModelConfig("nonexistent")
	if err == nil {
		t.Error("期望获取不存在的模型配置时返回错误")
	}
}
