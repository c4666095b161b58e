package cmd

import (
	"github.com/spf13/cobra"

	"de-hilfer/internal/chat"
	"de-hilfer/internal/util"
)

var (
	chatShowThinking bool
	chatTags         []string
	chatPromptName   string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "启动交互式对话模式",
	Long:  "启动与德语学习助手的交互式对话，支持工具调用和多轮上下文",
	RunE: func(cmd *cobra.Command, args []string) error {
		util.Info("正在启动交互式对话模式...")

		systemPrompt := ""
		if chatPromptName != "" {
			prompt, exists := router.Prompt(chatPromptName)
			if !exists {
				return util.NewErrorWithDetail(util.ErrCodeNotFound,
					"未找到提示词模板", chatPromptName)
			}
			systemPrompt = prompt
		}

		err := chat.Run(router, chat.Options{
			ShowThinking: chatShowThinking,
			EnabledTags:  normalizeTags(chatTags),
			SystemPrompt: systemPrompt,
		})
		if err != nil {
			return util.WrapError(util.ErrCodeInternalErr, "对话界面异常退出", err)
		}

		util.Info("对话模式已退出。")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&chatShowThinking, "thinking", false, "显示本地模型的思考过程")
	chatCmd.Flags().StringSliceVarP(&chatTags, "tags", "t", []string{"all"}, "启用的工具标签，'all' 表示全部")
	chatCmd.Flags().StringVarP(&chatPromptName, "prompt", "p", "", "提示词模板")
}
