package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sizemap/pkg/color"
	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/focus"
	"github.com/matzehuels/sizemap/pkg/ident"
	"github.com/matzehuels/sizemap/pkg/render"
	"github.com/matzehuels/sizemap/pkg/render/term"
)

// exploreCommand creates the explore command for browsing a report in the
// terminal.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		path    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "explore [report.json]",
		Short: "Browse a report as a treemap in the terminal",
		Long: `Browse a report as a treemap in the terminal.

Move the cursor with the arrow keys or the mouse. Enter or a click zooms into
the node under the cursor; doing it again on the zoomed node zooms out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateNavPath(path); err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), args[0], path, noCache)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "navigation path to start at")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input, path string, noCache bool) error {
	raw, err := readReport(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	parsed, err := runner.Load(ctx, raw)
	if err != nil {
		return err
	}
	tree, err := runner.Build(ctx, parsed)
	if err != nil {
		return err
	}

	m := newExploreModel(tree, path, term.New(nil))
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	if err != nil {
		return err
	}
	if p := final.(exploreModel).ctrl.Path(); p != "" {
		printDetail("Last path: %s", p)
	}
	return nil
}

// =============================================================================
// Key bindings
// =============================================================================

type exploreKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Zoom  key.Binding
	Back  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var _ help.KeyMap = exploreKeyMap{}

var exploreKeys = exploreKeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Zoom:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎/click", "zoom in/out")),
	Back:  key.NewBinding(key.WithKeys("backspace", "esc"), key.WithHelp("⌫", "whole tree")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Zoom, k.Back, k.Help, k.Quit}
}

func (k exploreKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Left, k.Right}, {k.Zoom, k.Back}, {k.Help, k.Quit}}
}

// =============================================================================
// Model
// =============================================================================

var (
	exploreStatusStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	exploreTipStyle    = lipgloss.NewStyle().Foreground(colorWhite)
)

// exploreModel is the bubbletea model of the terminal treemap. The frame
// is relaid out on every focus change and resize.
type exploreModel struct {
	ctrl     *focus.Controller
	colors   *color.Getter
	renderer *term.Renderer
	help     help.Model

	width, height int
	curX, curY    int
	scene         *render.Scene
	hover         ident.ID
}

func newExploreModel(tree *entry.Tree, path string, r *term.Renderer) exploreModel {
	ctrl := focus.NewController(tree, focus.NewMemoryNavigator(path))
	return exploreModel{
		ctrl:     ctrl,
		colors:   color.NewGetter(ctrl.Hierarchy()),
		renderer: r,
		help:     help.New(),
	}
}

// chromeRows is the number of rows below the map: status, tooltip and help.
const chromeRows = 3

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m = m.relayout()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	}
	return m, nil
}

func (m exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, exploreKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, exploreKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m.relayout(), nil
	case key.Matches(msg, exploreKeys.Zoom):
		if m.hover != 0 {
			m.ctrl.Click(m.hover)
			m = m.relayout()
		}
	case key.Matches(msg, exploreKeys.Back):
		m.ctrl.Clear()
		m = m.relayout()
	case key.Matches(msg, exploreKeys.Up):
		m = m.moveCursor(0, -1)
	case key.Matches(msg, exploreKeys.Down):
		m = m.moveCursor(0, 1)
	case key.Matches(msg, exploreKeys.Left):
		m = m.moveCursor(-1, 0)
	case key.Matches(msg, exploreKeys.Right):
		m = m.moveCursor(1, 0)
	}
	return m, nil
}

func (m exploreModel) handleMouse(msg tea.MouseMsg) exploreModel {
	m = m.moveCursor(msg.X-m.curX, msg.Y-m.curY)
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.hover != 0 {
		m.ctrl.Click(m.hover)
		m = m.relayout()
	}
	return m
}

func (m exploreModel) moveCursor(dx, dy int) exploreModel {
	cols, rows := m.mapSize()
	m.curX = min(max(m.curX+dx, 0), max(cols-1, 0))
	m.curY = min(max(m.curY+dy, 0), max(rows-1, 0))
	return m.updateHover()
}

func (m exploreModel) updateHover() exploreModel {
	m.hover = 0
	if m.scene == nil {
		return m
	}
	if n := term.Hit(m.scene, m.curX, m.curY); n != nil {
		m.hover = n.ID()
	}
	return m
}

func (m exploreModel) mapSize() (cols, rows int) {
	return m.width, m.height - chromeRows - (lipgloss.Height(m.help.View(exploreKeys)) - 1)
}

func (m exploreModel) relayout() exploreModel {
	cols, rows := m.mapSize()
	if cols < 1 || rows < 1 {
		m.scene = nil
		return m.updateHover()
	}
	m.scene = render.NewSceneWithColors(m.ctrl, term.Options(cols, rows), m.colors)
	return m.moveCursor(0, 0)
}

func (m exploreModel) View() string {
	if m.scene == nil {
		return "window too small"
	}
	var b strings.Builder
	b.WriteString(m.renderer.Render(m.scene, m.hover))
	b.WriteByte('\n')

	path := m.ctrl.Path()
	if path == "" {
		path = "(whole tree)"
	}
	b.WriteString(exploreStatusStyle.Render(truncate(path, m.width)))
	b.WriteByte('\n')
	b.WriteString(exploreTipStyle.Render(truncate(m.tooltip(), m.width)))
	b.WriteByte('\n')
	b.WriteString(m.help.View(exploreKeys))
	return b.String()
}

// tooltip describes the hovered entry on one line.
func (m exploreModel) tooltip() string {
	if m.hover == 0 {
		return ""
	}
	e, ok := m.ctrl.Tree().Find(m.hover)
	if !ok {
		return ""
	}
	desc := strings.Join(strings.Fields(e.String()), " ")
	return fmt.Sprintf("%s  %s", e.Name(), desc)
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) < width {
		return string(r[:max(width, 0)])
	}
	return string(r[:width-1]) + "…"
}
