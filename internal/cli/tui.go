package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/jobs"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
	"github.com/matzehuels/matchthumb/pkg/video"
)

// Form styles
var (
	formLabelStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	formFocusStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	formNormalStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	formDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	formButtonStyle  = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	formButtonActive = formButtonStyle.BorderForeground(colorCyan).Foreground(colorCyan).Bold(true)
)

// =============================================================================
// Backend
// =============================================================================

// formBackend is what the form needs from the rest of the program.
type formBackend interface {
	Submit(ctx context.Context, spec jobs.Spec) (jobs.Job, <-chan jobs.Job, error)
	Reload() error
	Sprites() []string
}

// runnerBackend submits to a dispatcher and reloads the runner's store.
type runnerBackend struct {
	runner     *pipeline.Runner
	dispatcher *jobs.Dispatcher
}

func (b runnerBackend) Submit(ctx context.Context, spec jobs.Spec) (jobs.Job, <-chan jobs.Job, error) {
	return b.dispatcher.Submit(ctx, spec)
}

func (b runnerBackend) Reload() error { return b.runner.Reload() }

func (b runnerBackend) Sprites() []string { return b.runner.Store.Sprites() }

// =============================================================================
// FormModel - Match form
// =============================================================================

// Focusable form controls, in tab order.
const (
	fieldInput = iota
	fieldOutput
	fieldStart
	fieldEnd
	fieldTournament
	fieldRound
	fieldDate
	fieldPlayer1
	fieldPlayer2
	fieldSprite1
	fieldSprite2
	fieldThumbnail
	fieldVideo
	fieldSubmit
	fieldReload
	fieldCount
)

const textFieldCount = fieldPlayer2 + 1

var fieldLabels = [textFieldCount]string{
	fieldInput:      "Input File",
	fieldOutput:     "Output Folder",
	fieldStart:      "Start",
	fieldEnd:        "End",
	fieldTournament: "Tournament",
	fieldRound:      "Round",
	fieldDate:       "Date",
	fieldPlayer1:    "Player 1",
	fieldPlayer2:    "Player 2",
}

type (
	jobDoneMsg struct{ job jobs.Job }
	tickMsg    struct{}
	reloadMsg  struct{ err error }
)

// FormModel is the bubbletea model for the match form.
type FormModel struct {
	backend formBackend
	ctx     context.Context

	values  [textFieldCount]string
	sprites []string
	sprite1 int
	sprite2 int

	thumbnail bool
	video     bool

	focus   int
	running bool
	frame   int
	message string
	failed  bool
}

// NewFormModel creates the form with the defaults of a fresh session.
func NewFormModel(ctx context.Context, backend formBackend) FormModel {
	m := FormModel{
		backend:   backend,
		ctx:       ctx,
		sprites:   backend.Sprites(),
		thumbnail: true,
		video:     true,
	}
	m.values[fieldStart] = "00:00:00"
	m.values[fieldEnd] = "00:00:00"
	return m
}

func (m FormModel) Init() tea.Cmd {
	return nil
}

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case jobDoneMsg:
		m.running = false
		m.message = msg.job.Message
		m.failed = msg.job.Status == jobs.StatusFailed
	case reloadMsg:
		if msg.err != nil {
			m.message = errors.UserMessage(msg.err)
			m.failed = true
			return m, nil
		}
		m.sprites = m.backend.Sprites()
		m.sprite1 = clampIndex(m.sprite1, len(m.sprites))
		m.sprite2 = clampIndex(m.sprite2, len(m.sprites))
		m.message = "Configuration reloaded."
		m.failed = false
	}
	return m, nil
}

func (m FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down":
		m.focus = (m.focus + 1) % fieldCount
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, nil
	}

	switch {
	case m.focus < textFieldCount:
		m.editText(msg)
	case m.focus == fieldSprite1:
		m.sprite1 = m.cycle(m.sprite1, msg.String())
	case m.focus == fieldSprite2:
		m.sprite2 = m.cycle(m.sprite2, msg.String())
	case m.focus == fieldThumbnail && isPress(msg):
		m.thumbnail = !m.thumbnail
	case m.focus == fieldVideo && isPress(msg):
		m.video = !m.video
	case m.focus == fieldSubmit && isPress(msg):
		return m.submit()
	case m.focus == fieldReload && isPress(msg):
		return m, m.reload()
	}
	return m, nil
}

func (m *FormModel) editText(msg tea.KeyMsg) {
	v := m.values[m.focus]
	switch msg.Type {
	case tea.KeyRunes:
		v += string(msg.Runes)
	case tea.KeySpace:
		v += " "
	case tea.KeyBackspace:
		if r := []rune(v); len(r) > 0 {
			v = string(r[:len(r)-1])
		}
	case tea.KeyCtrlU:
		v = ""
	}
	m.values[m.focus] = v
}

func (m FormModel) cycle(i int, key string) int {
	n := len(m.sprites)
	if n == 0 {
		return 0
	}
	switch key {
	case "right", "l", " ":
		return (i + 1) % n
	case "left", "h":
		return (i + n - 1) % n
	}
	return i
}

func isPress(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace
}

// submit queues the form as a job. While a job runs, submit does nothing.
func (m FormModel) submit() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}
	spec, err := m.submission().spec()
	if err == nil && spec.Thumbnail == nil && spec.Video == nil {
		err = errors.New(errors.ErrCodeInvalidInput, "nothing to generate")
	}
	if err != nil {
		m.message = errors.UserMessage(err)
		m.failed = true
		return m, nil
	}

	_, done, err := m.backend.Submit(m.ctx, spec)
	if err != nil {
		m.message = errors.UserMessage(err)
		m.failed = true
		return m, nil
	}

	m.running = true
	m.failed = false
	m.frame = 0
	m.message = "Working on it..."
	return m, tea.Batch(tick(), waitFor(done))
}

func (m FormModel) reload() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		return reloadMsg{err: backend.Reload()}
	}
}

// submission collects the form values.
func (m FormModel) submission() submission {
	return submission{
		Match: pipeline.Request{
			Tournament: m.values[fieldTournament],
			Round:      m.values[fieldRound],
			Date:       m.values[fieldDate],
			Player1:    m.values[fieldPlayer1],
			Player2:    m.values[fieldPlayer2],
			Sprite1:    m.spriteAt(m.sprite1),
			Sprite2:    m.spriteAt(m.sprite2),
		},
		OutputDir:  m.values[fieldOutput],
		Ext:        defaultExt,
		Thumbnail:  m.thumbnail,
		Video:      m.video,
		VideoInput: m.values[fieldInput],
		Start:      m.values[fieldStart],
		End:        m.values[fieldEnd],
	}
}

func (m FormModel) spriteAt(i int) string {
	if i < 0 || i >= len(m.sprites) {
		return ""
	}
	return m.sprites[i]
}

func (m FormModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Match Thumbnail"))
	b.WriteString("\n")
	b.WriteString(formDimStyle.Render("tab/↑/↓ move  ←/→ pick sprite  ⏎ toggle or press  esc quit"))
	b.WriteString("\n\n")

	for i := 0; i < textFieldCount; i++ {
		b.WriteString(m.row(i, fieldLabels[i], m.values[i]+m.cursor(i)))
		if i == fieldEnd {
			b.WriteString("\n")
		}
	}
	b.WriteString(m.row(fieldSprite1, "Sprite 1", m.picker(m.sprite1)))
	b.WriteString(m.row(fieldSprite2, "Sprite 2", m.picker(m.sprite2)))
	b.WriteString("\n")
	b.WriteString(m.checkbox(fieldThumbnail, "Generate Thumbnail", m.thumbnail))
	b.WriteString("   ")
	b.WriteString(m.checkbox(fieldVideo, "Generate Video", m.video))
	b.WriteString("\n\n")

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		m.button(fieldSubmit, "Submit", m.running),
		" ",
		m.button(fieldReload, "Reload Config", false),
	)
	b.WriteString(buttons)
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")

	return b.String()
}

func (m FormModel) row(field int, label, value string) string {
	style := formNormalStyle
	marker := "  "
	if m.focus == field {
		style = formFocusStyle
		marker = "▸ "
	}
	return marker + formLabelStyle.Render(label+":") + " " + style.Render(value) + "\n"
}

func (m FormModel) cursor(field int) string {
	if m.focus == field {
		return "█"
	}
	return ""
}

func (m FormModel) picker(i int) string {
	if len(m.sprites) == 0 {
		return StyleWarning.Render("no sprites")
	}
	return fmt.Sprintf("‹ %s ›  %s", m.sprites[i], formDimStyle.Render(fmt.Sprintf("%d/%d", i+1, len(m.sprites))))
}

func (m FormModel) checkbox(field int, label string, on bool) string {
	box := "[ ]"
	if on {
		box = "[x]"
	}
	if m.focus == field {
		return formFocusStyle.Render(box + " " + label)
	}
	return formNormalStyle.Render(box + " " + label)
}

func (m FormModel) button(field int, label string, disabled bool) string {
	switch {
	case disabled:
		return formButtonStyle.Foreground(colorDim).Render(label)
	case m.focus == field:
		return formButtonActive.Render(label)
	default:
		return formButtonStyle.Render(label)
	}
}

func (m FormModel) status() string {
	switch {
	case m.running:
		return styleIconSpinner.Render(spinnerFrames[m.frame]) + " " + m.message
	case m.message == "":
		return ""
	case m.failed:
		return styleIconError.Render(iconError) + " " + m.message
	default:
		return styleIconSuccess.Render(iconSuccess) + " " + m.message
	}
}

// =============================================================================
// Commands
// =============================================================================

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func waitFor(done <-chan jobs.Job) tea.Cmd {
	return func() tea.Msg {
		return jobDoneMsg{job: <-done}
	}
}

func clampIndex(i, n int) int {
	if i >= n {
		return max(n-1, 0)
	}
	return i
}

// tuiCommand creates the tui command, an interactive form over the same jobs
// the HTTP server runs.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		ffmpeg  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Fill in a match interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			dispatcher := jobs.NewDispatcher(runner, c.newTrimmer(ffmpeg), nil, jobs.Options{Logger: c.Logger})
			defer dispatcher.Close()

			// Log lines would tear the alternate screen.
			level := c.Logger.GetLevel()
			c.Logger.SetLevel(log.ErrorLevel)
			defer c.Logger.SetLevel(level)

			model := NewFormModel(cmd.Context(), runnerBackend{runner: runner, dispatcher: dispatcher})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "run form")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", envOr(envFFmpeg, video.DefaultFFmpeg), "ffmpeg executable (env "+envFFmpeg+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "decode and render every layer from scratch")
	return cmd
}
