package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"de-hilfer/internal/config"
	"de-hilfer/internal/llm"
)

// Options 聊天界面行为配置
type Options struct {
	// ShowThinking 是否展示本地模型的 <think> 推理块
	ShowThinking bool
	// EnabledTags 传给代理循环的工具标签过滤器
	EnabledTags []string
	// SystemPrompt 覆盖默认系统提示词，空则使用配置值
	SystemPrompt string
}

// displayMessage 一条界面上展示的消息
type displayMessage struct {
	Content   string
	IsUser    bool
	Timestamp time.Time
	Thinking  string
}

// responseMsg 一次代理循环运行的结果
type responseMsg struct {
	text  string
	state llm.RunState
}

// Model 聊天界面的 Bubble Tea 模型
type Model struct {
	viewport viewport.Model
	textarea textarea.Model

	messages   []displayMessage
	ready      bool
	quitting   bool
	processing bool
	width      int
	height     int

	router  *llm.Router
	session *llm.Session
	opts    Options

	renderer *glamour.TermRenderer

	userStyle     lipgloss.Style
	aiStyle       lipgloss.Style
	thinkingStyle lipgloss.Style
	systemStyle   lipgloss.Style
	inputStyle    lipgloss.Style
	helpStyle     lipgloss.Style
}

// NewModel 创建聊天界面模型
func NewModel(router *llm.Router, opts Options) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Frag mich etwas über Deutsch... (Ctrl+S senden, Ctrl+C beenden)"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetKeys("enter")

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("创建Markdown渲染器失败: %w", err)
	}

	m := &Model{
		viewport: vp,
		textarea: ta,
		messages: make([]displayMessage, 0),
		router:   router,
		session:  router.GetSession(fmt.Sprintf("chat-%d", time.Now().UnixNano()), opts.SystemPrompt),
		opts:     opts,
		renderer: renderer,

		userStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff00")).
			Bold(true).
			MarginLeft(1),
		aiStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ffff")).
			Bold(true).
			MarginLeft(1),
		thinkingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffff00")).
			Italic(true).
			MarginLeft(2),
		systemStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true).
			MarginLeft(1),
		inputStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginLeft(1),
	}

	m.addWelcomeMessage()

	return m, nil
}

// addWelcomeMessage 添加欢迎消息
func (m *Model) addWelcomeMessage() {
	welcomeMsg := "📖 Willkommen bei De-Hilfer — dein Deutsch-Lernassistent\n" +
		"Frag nach Wörtern, Grammatik oder lass deine Sätze prüfen."
	if m.opts.ShowThinking {
		welcomeMsg += "\n💭 思考过程显示已开启"
	}
	welcomeMsg += "\n\n💡 快捷键提示：\n" +
		"  • Ctrl+S - 发送消息\n" +
		"  • Enter - 换行\n" +
		"  • Ctrl+C - 退出程序\n" +
		"  • Ctrl+L - 开始新会话\n" +
		"  • Ctrl+U/Ctrl+D - 滚动消息历史"

	m.messages = append(m.messages, displayMessage{
		Content:   welcomeMsg,
		IsUser:    false,
		Timestamp: time.Now(),
	})

	m.updateViewport()
}

// Init 初始化模型
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update 处理消息更新
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width

		headerHeight := 1
		helpHeight := 3
		inputHeight := 5
		viewportHeight := m.height - headerHeight - helpHeight - inputHeight - 2

		m.viewport.Width = m.width - 2
		m.viewport.Height = viewportHeight

		m.textarea.SetWidth(m.width - 4)
		m.textarea.SetHeight(3)

		if !m.ready {
			m.ready = true
		}

		m.updateViewport()

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case msg.Type == tea.KeyCtrlL:
			// 新会话：清空界面并重建代理会话历史
			m.messages = make([]displayMessage, 0)
			m.session = m.router.GetSession(
				fmt.Sprintf("chat-%d", time.Now().UnixNano()), m.opts.SystemPrompt)
			m.addWelcomeMessage()
			return m, nil

		case msg.Type == tea.KeyCtrlS:
			return m.sendMessage()

		case msg.Type == tea.KeyCtrlU:
			m.viewport.LineUp(5)
			return m, nil

		case msg.Type == tea.KeyCtrlD:
			m.viewport.LineDown(5)
			return m, nil
		}

	case responseMsg:
		m.processing = false
		switch msg.state {
		case llm.RunFailed:
			m.addErrorMessage("Fehler: Kein Modell konnte eine Antwort liefern. " +
				"Prüfe die Verbindung oder die Konfiguration (de-hilfer doctor).")
		default:
			// RunExhausted 时最后一条助手消息仍是尽力回答
			m.addAssistantMessage(msg.text)
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// View 渲染界面
func (m *Model) View() string {
	if m.quitting {
		return "Tschüss!\n"
	}

	if !m.ready {
		return "\n正在初始化..."
	}

	header := m.systemStyle.Render("De-Hilfer — Deutsch-Lernassistent")
	messagesView := m.viewport.View()

	var statusLine string
	if m.processing {
		statusLine = m.systemStyle.Render("🤔 Denkt nach...")
	}

	inputArea := m.inputStyle.Render(m.textarea.View())
	help := m.helpStyle.Render("Ctrl+S: 发送 | Ctrl+C: 退出 | Ctrl+L: 新会话 | Ctrl+U/D: 滚动")

	var sections []string
	sections = append(sections, header)
	sections = append(sections, messagesView)
	if statusLine != "" {
		sections = append(sections, statusLine)
	}
	sections = append(sections, inputArea)
	sections = append(sections, help)

	return strings.Join(sections, "\n")
}

// addUserMessage 添加用户消息
func (m *Model) addUserMessage(content string) {
	m.messages = append(m.messages, displayMessage{
		Content:   content,
		IsUser:    true,
		Timestamp: time.Now(),
	})
	m.updateViewport()
}

// addAssistantMessage 添加助手消息，按配置分离思考块
func (m *Model) addAssistantMessage(content string) {
	var thinking string
	var actualContent string

	if m.opts.ShowThinking {
		result := ExtractThinking(content)
		thinking = result.Thinking
		actualContent = result.Content
	} else {
		actualContent = RemoveThinking(content)
	}

	m.messages = append(m.messages, displayMessage{
		Content:   actualContent,
		IsUser:    false,
		Timestamp: time.Now(),
		Thinking:  thinking,
	})
	m.updateViewport()
}

// addErrorMessage 添加错误消息
func (m *Model) addErrorMessage(content string) {
	m.messages = append(m.messages, displayMessage{
		Content:   content,
		IsUser:    false,
		Timestamp: time.Now(),
	})
	m.updateViewport()
}

// updateViewport 更新视口内容
func (m *Model) updateViewport() {
	var content strings.Builder

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		timestamp := msg.Timestamp.Format("15:04:05")

		maxWidth := min(m.width*4/5, 80)
		if maxWidth <= 0 {
			maxWidth = 80
		}

		if msg.IsUser {
			header := m.userStyle.Render(fmt.Sprintf("Du [%s]:", timestamp))
			content.WriteString(header + "\n")

			bubbleStyle := lipgloss.NewStyle().
				Padding(0, 1).
				MarginLeft(1).
				Width(maxWidth).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#00ff00"))

			content.WriteString(bubbleStyle.Render(msg.Content) + "\n")
		} else {
			if msg.Thinking != "" && m.opts.ShowThinking {
				thinkingHeader := m.thinkingStyle.Render("🤔 思考过程:")
				content.WriteString(thinkingHeader + "\n")

				rendered, err := m.renderer.Render(msg.Thinking)
				if err != nil {
					content.WriteString(m.thinkingStyle.Render(msg.Thinking))
				} else {
					content.WriteString(rendered)
				}
				content.WriteString("\n---\n")
			}

			header := m.aiStyle.Render(fmt.Sprintf("Hilfer [%s]:", timestamp))
			content.WriteString(header + "\n")

			bubbleStyle := lipgloss.NewStyle().
				Padding(0, 1).
				MarginLeft(1).
				Width(maxWidth).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#00ffff"))

			rendered, err := m.renderer.Render(msg.Content)
			if err != nil {
				rendered = msg.Content
			}
			content.WriteString(bubbleStyle.Render(rendered) + "\n")
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

// sendMessage 发送当前输入
func (m *Model) sendMessage() (tea.Model, tea.Cmd) {
	if m.processing {
		return m, nil
	}

	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	m.textarea.Reset()
	m.addUserMessage(input)
	m.processing = true

	return m, m.runAgentLoop(input)
}

// runAgentLoop 在后台驱动代理循环
func (m *Model) runAgentLoop(input string) tea.Cmd {
	session := m.session
	tags := m.opts.EnabledTags

	return func() tea.Msg {
		timeout := 2 * time.Minute
		if cfg := config.GetConfig(); cfg != nil && cfg.LLM.Timeout > 0 {
			// 一轮代理循环可能包含多次模型问询和工具调用
			timeout = time.Duration(cfg.LLM.Timeout*3) * time.Second
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		state := session.Run(ctx, input, 0, tags)
		return responseMsg{text: session.FinalText(), state: state}
	}
}

// Run 启动聊天界面
func Run(router *llm.Router, opts Options) error {
	model, err := NewModel(router, opts)
	if err != nil {
		return fmt.Errorf("初始化聊天界面失败: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
