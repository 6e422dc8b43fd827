package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/dartffi/bindgen/gen"
	"github.com/dartffi/bindgen/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	declStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err        error
	defs       *model.Definitions
	cfg        *gen.Config
	filename   string
	configFile string
	decls      []declInfo
	filter     textinput.Model
	preview    string
	offset     int
	selected   int
	state      modelState
}

type declInfo struct {
	kind string
	name string
	// typ is the type node to render a preview for. Functions have no
	// standalone codec, so typ stays nil and the preview shows the
	// signature and native entry points instead.
	typ     *model.Type
	summary string
}

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	statePreview
)

func newInteractiveModel(modelFile, configFile string) *interactiveModel {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "
	filter.Width = 40
	return &interactiveModel{
		filename:   modelFile,
		filter:     filter,
		configFile: configFile,
		state:      stateBrowse,
	}
}

type loadedMsg struct {
	err   error
	defs  *model.Definitions
	cfg   *gen.Config
	decls []declInfo
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModel
}

func (m *interactiveModel) loadModel() tea.Msg {
	defs, err := model.LoadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	cfg, err := gen.LoadConfig(m.configFile)
	if err != nil {
		return loadedMsg{err: err}
	}

	var decls []declInfo
	for _, e := range defs.Enums {
		t := model.EnumRef(e.Name)
		decls = append(decls, declInfo{
			kind:    "enum",
			name:    gen.ClassName(e.Name),
			typ:     &t,
			summary: fmt.Sprintf("%d variants", len(e.Variants)),
		})
	}
	for _, r := range defs.Records {
		t := model.RecordRef(r.Name)
		decls = append(decls, declInfo{
			kind:    "record",
			name:    gen.ClassName(r.Name),
			typ:     &t,
			summary: fmt.Sprintf("%d fields", len(r.Fields)),
		})
	}
	for _, o := range defs.Objects {
		t := o.AsType()
		decls = append(decls, declInfo{
			kind:    "object",
			name:    gen.ClassName(o.Name),
			typ:     &t,
			summary: fmt.Sprintf("%s, %d methods", o.Impl, len(o.Methods)),
		})
	}
	for _, cb := range defs.Callbacks {
		t := model.CallbackRef(cb.Name)
		decls = append(decls, declInfo{
			kind:    "callback",
			name:    gen.ClassName(cb.Name),
			typ:     &t,
			summary: fmt.Sprintf("%d methods", len(cb.Methods)),
		})
	}
	for _, fn := range defs.Functions {
		decls = append(decls, declInfo{
			kind:    "function",
			name:    gen.FuncName(fn.Name),
			summary: formatCallable(fn.Name, fn.Args, fn.Return, fn.Throws, fn.Async),
		})
	}

	return loadedMsg{defs: defs, cfg: cfg, decls: decls}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateBrowse
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.selected = 0
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			switch m.state {
			case stateBrowse:
				if m.selected > 0 {
					m.selected--
				}
			case statePreview:
				if m.offset > 0 {
					m.offset--
				}
			}

		case "down", "j":
			switch m.state {
			case stateBrowse:
				if m.selected < len(m.visible())-1 {
					m.selected++
				}
			case statePreview:
				if m.offset < strings.Count(m.preview, "\n")-1 {
					m.offset++
				}
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateFilter
				m.filter.Focus()
			}

		case "enter":
			if m.state == stateBrowse {
				visible := m.visible()
				if len(visible) == 0 {
					return m, nil
				}
				m.preview = m.renderPreview(visible[m.selected])
				m.offset = 0
				m.state = statePreview
			}

		case "esc":
			switch m.state {
			case statePreview:
				m.state = stateBrowse
				m.preview = ""
			case stateBrowse:
				if m.filter.Value() != "" {
					m.filter.SetValue("")
					m.selected = 0
				}
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.defs = msg.defs
		m.cfg = msg.cfg
		m.decls = msg.decls
	}

	return m, nil
}

// visible filters the declarations by the current filter text,
// case-insensitively against both kind and name.
func (m *interactiveModel) visible() []declInfo {
	needle := strings.ToLower(m.filter.Value())
	if needle == "" {
		return m.decls
	}
	var out []declInfo
	for _, d := range m.decls {
		if strings.Contains(strings.ToLower(d.name), needle) ||
			strings.Contains(d.kind, needle) {
			out = append(out, d)
		}
	}
	return out
}

// renderPreview produces the Dart slice one declaration pulls in. Types go
// through a fresh emission registry so transitive codecs appear alongside
// the declaration itself; functions have no codec of their own, so the
// preview lists the signature and native entry points.
func (m *interactiveModel) renderPreview(d declInfo) string {
	if d.typ == nil {
		for _, fn := range m.defs.Functions {
			if gen.FuncName(fn.Name) != d.name {
				continue
			}
			var b strings.Builder
			b.WriteString(formatCallable(fn.Name, fn.Args, fn.Return, fn.Throws, fn.Async))
			b.WriteString("\n\nnative entry points:\n")
			b.WriteString("  " + fn.FFISymbol + "\n")
			if fn.Async {
				b.WriteString("  " + fn.FFIPoll + "\n")
				b.WriteString("  " + fn.FFIComplete + "\n")
				b.WriteString("  " + fn.FFIFreeFuture + "\n")
			}
			return b.String()
		}
		return "declaration not found"
	}

	helper := gen.NewTypeHelper(m.defs, nil)
	if err := helper.Include(*d.typ); err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", err))
	}
	return helper.Render()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.defs == nil {
		return "Loading model..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Dart Bindgen"))
	b.WriteString(" ")
	b.WriteString(m.defs.Namespace)
	if m.cfg != nil && m.cfg.FFIModule != "" {
		b.WriteString(" (ffi module " + m.cfg.FFIModule + ")")
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		visible := m.visible()
		if len(visible) == 0 {
			b.WriteString(helpStyle.Render("no declarations match"))
			b.WriteString("\n")
		}
		if m.selected >= len(visible) {
			m.selected = 0
		}
		for i, d := range visible {
			line := kindStyle.Render(fmt.Sprintf("%-8s", d.kind)) +
				declStyle.Render(d.name) + "  " + helpStyle.Render(d.summary)
			if i == m.selected && m.state == stateBrowse {
				b.WriteString(selectedStyle.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter preview • / filter • q quit"))

	case statePreview:
		visible := m.visible()
		if m.selected < len(visible) {
			d := visible[m.selected]
			b.WriteString(fmt.Sprintf("Preview of %s %s:\n\n", d.kind, declStyle.Render(d.name)))
		}
		lines := strings.Split(m.preview, "\n")
		if m.offset > len(lines)-1 {
			m.offset = len(lines) - 1
		}
		b.WriteString(strings.Join(lines[m.offset:], "\n"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func runInteractive(modelFile, configFile string) error {
	if modelFile == "" {
		return fmt.Errorf("interactive mode needs -model")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(modelFile, configFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
