package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"de-hilfer/internal/config"
	"de-hilfer/internal/llm"
	"de-hilfer/internal/util"
)

var (
	askPromptName string
	askTags       []string
	askImagePath  string
	askPlain      bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [Frage]",
	Short: "单次提问",
	Long: `向助手提出一个问题并获得回答。助手可以在回答前自主调用
工具（词典查询、时间查询、MCP 工具等）。

示例:
  de-hilfer ask "Was bedeutet 'laufen'?"
  de-hilfer ask --prompt spell_checker "Ich habe gestern ein Buch gelest."
  de-hilfer ask --image foto.jpg "Was steht auf diesem Schild?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(args[0])
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askPromptName, "prompt", "p", "", "提示词模板 (spell_checker, analysis, ...)")
	askCmd.Flags().StringSliceVarP(&askTags, "tags", "t", []string{"all"}, "启用的工具标签，'all' 表示全部")
	askCmd.Flags().StringVarP(&askImagePath, "image", "i", "", "随问题附带的图片路径")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "输出纯文本，不渲染 Markdown")
}

// runAsk 执行一次单轮问答
func runAsk(question string) error {
	systemPrompt := ""
	if askPromptName != "" {
		prompt, exists := router.Prompt(askPromptName)
		if !exists {
			return util.NewErrorWithDetail(util.ErrCodeNotFound,
				"未找到提示词模板", askPromptName)
		}
		systemPrompt = prompt
	}

	input := llm.MessageInput{Text: question}
	if askImagePath != "" {
		data, mimeType, err := loadImage(askImagePath)
		if err != nil {
			return err
		}
		input.ImageData = data
		input.ImageMime = mimeType
	}

	session := router.GetSession(fmt.Sprintf("ask-%s", uuid.NewString()), systemPrompt)

	timeout := 2 * time.Minute
	if config.Config.LLM.Timeout > 0 {
		// 一次运行可能包含多轮模型问询和工具调用
		timeout = time.Duration(config.Config.LLM.Timeout*3) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	state := session.RunInput(ctx, input, 0, normalizeTags(askTags))
	if state == llm.RunFailed {
		return util.NewError(util.ErrCodeNoUsableModel,
			"没有模型能够回答，请检查配置和网络连接 (de-hilfer doctor)")
	}

	answer := session.FinalText()
	if answer == "" {
		return util.NewError(util.ErrCodeInvalidResponse, "模型未返回任何内容")
	}

	if askPlain {
		fmt.Println(answer)
		return nil
	}

	rendered, err := glamour.Render(answer, "auto")
	if err != nil {
		fmt.Println(answer)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

// normalizeTags 把命令行标签参数翻译为工具选择过滤器
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	for _, tag := range tags {
		if strings.EqualFold(tag, "none") {
			return nil
		}
	}
	return tags
}

// loadImage 读取图片文件并探测 MIME 类型
func loadImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", util.WrapError(util.ErrCodeNotFound,
			fmt.Sprintf("读取图片失败: %s", path), err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", util.NewErrorWithDetail(util.ErrCodeInvalidParam,
			"文件不是受支持的图片格式", filepath.Base(path))
	}

	return data, mimeType, nil
}
