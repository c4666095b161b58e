package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
	"de-hilfer/internal/llm"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "列出配置的模型后端",
	Long:  "显示所有配置的模型后端及其优先级、可用状态和运行指标",
	Run: func(cmd *cobra.Command, args []string) {
		listModels()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

// listModels 打印模型后端清单。
// 先按故障转移顺序列出可用的，再列出被排除的配置项。
func listModels() {
	fmt.Println("模型后端:")
	fmt.Println("=========")

	active := make(map[string]bool)
	for i, adapter := range router.Adapters() {
		active[adapter.Name()] = true

		fmt.Printf("\n%d. %s\n", i+1, adapter.Name())
		fmt.Printf("   提供方: %s\n", adapter.Provider())
		fmt.Printf("   优先级: %d\n", adapter.Priority())
		if modelCfg, err := config.GetModelConfig(adapter.Name()); err == nil {
			fmt.Printf("   模型: %s\n", strings.Join(modelCfg.Params.ModelList, ", "))
		}
		printMetrics(adapter)
	}

	var excluded []string
	for name, modelCfg := range config.Config.LLM.Models {
		if active[name] {
			continue
		}
		reason := "已禁用"
		if modelCfg.Enabled {
			reason = "初始化失败"
		}
		excluded = append(excluded, fmt.Sprintf("%s (%s, %s)", name, modelCfg.Provider, reason))
	}
	if len(excluded) > 0 {
		sort.Strings(excluded)
		fmt.Println("\n未参与故障转移:")
		for _, line := range excluded {
			fmt.Printf("  - %s\n", line)
		}
	}
}

// printMetrics 打印适配器的运行指标
func printMetrics(adapter llm.Adapter) {
	type metricsProvider interface {
		GetMetrics() llm.AdapterMetrics
	}

	provider, ok := adapter.(metricsProvider)
	if !ok {
		return
	}

	metrics := provider.GetMetrics()
	if metrics.RequestCount == 0 {
		return
	}

	fmt.Printf("   请求: %d (失败 %d), 平均耗时 %dms\n",
		metrics.RequestCount, metrics.ErrorCount, metrics.AverageResponseTime)
}
