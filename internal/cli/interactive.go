package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inkwave/pdfcast/internal/tts"
)

// menuItem represents a single configurable option in the TUI.
type menuItem struct {
	label    string
	value    string
	options  []menuOption
	required bool
	editing  bool
	cursor   int // cursor within options when editing
}

type menuOption struct {
	label string
	value string
}

type menuState int

const (
	stateMenu menuState = iota
	stateEditing
)

// tuiModel is the Bubble Tea model for the interactive menu.
type tuiModel struct {
	items     []menuItem
	cursor    int
	state     menuState
	width     int
	err       error
	confirmed bool
	cancelled bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	menuLabelStyle = lipgloss.NewStyle().
			Width(18).
			Align(lipgloss.Right).
			MarginRight(2)

	menuValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	menuValueDimStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#555555")).
				Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true).
				PaddingLeft(2)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 3)

	buttonDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#7D56F4")).
			MarginBottom(1).
			PaddingBottom(0)
)

const (
	idxInput   = 0
	idxOutput  = 1
	idxTitle   = 2
	idxMinutes = 3
	idxModel   = 4
	idxTTS     = 5
	idxEngine  = 6
	idxVoiceA  = 7
	idxVoiceB  = 8
	// idxGenerate = last item
)

func defaultOutputFilename() string {
	return time.Now().Format("podcast-20060102-1504.mp3")
}

// voiceOptions returns the voice choices for a provider, and the default
// voice ID per host.
func voiceOptions(provider string) (opts []menuOption, defaultA, defaultB string) {
	voices, err := tts.AvailableVoices(provider)
	if err != nil {
		return nil, "", ""
	}
	for _, v := range voices {
		label := fmt.Sprintf("%s - %s (%s)", v.Name, v.Description, v.Gender)
		opts = append(opts, menuOption{label: label, value: v.ID})
		switch v.DefaultFor {
		case "Host A":
			defaultA = v.ID
		case "Host B":
			defaultB = v.ID
		}
	}
	return
}

func engineOptions(provider string) []menuOption {
	if provider != "polly" {
		return []menuOption{
			{label: "Not applicable (" + provider + ")", value: ""},
		}
	}
	return []menuOption{
		{label: "Generative (most natural) (default)", value: "generative"},
		{label: "Neural (balanced)", value: "neural"},
		{label: "Standard (lowest cost)", value: "standard"},
	}
}

func buildMenuItems(provider string) []menuItem {
	voiceOpts, defaultA, defaultB := voiceOptions(provider)

	outputVal := flagOutput
	if outputVal == "" {
		outputVal = defaultOutputFilename()
	}

	minutesVal := ""
	if flagMinutes > 0 {
		minutesVal = strconv.Itoa(flagMinutes)
	}

	items := []menuItem{
		{
			label:    "Input",
			value:    flagInput,
			required: true,
		},
		{
			label: "Output",
			value: outputVal,
		},
		{
			label: "Title",
			value: flagTitle,
		},
		{
			label: "Minutes",
			value: minutesVal,
			options: []menuOption{
				{label: "8 (quick take)", value: "8"},
				{label: "12 (default)", value: "12"},
				{label: "18 (extended)", value: "18"},
				{label: "25 (deep dive)", value: "25"},
			},
		},
		{
			label: "Model",
			value: flagModel,
			options: []menuOption{
				{label: "Sonnet 4.5 (balanced) (default)", value: "sonnet"},
				{label: "Haiku 4.5 (fast, affordable)", value: "haiku"},
				{label: "Nova 2 Lite (Bedrock)", value: "nova-lite"},
			},
		},
		{
			label: "TTS Provider",
			value: provider,
			options: []menuOption{
				{label: "Amazon Polly (engine tiers) (default)", value: "polly"},
				{label: "ElevenLabs (premium voices)", value: "elevenlabs"},
				{label: "Google Cloud TTS (Chirp 3 HD)", value: "google"},
			},
		},
		{
			label:   "Engine",
			value:   flagEngine,
			options: engineOptions(provider),
		},
		{
			label:   "Voice A (Alex)",
			value:   defaultA,
			options: voiceOpts,
		},
		{
			label:   "Voice B (Sam)",
			value:   defaultB,
			options: voiceOpts,
		},
	}

	items = append(items, menuItem{
		label: ">>> Generate <<<",
	})

	// Pre-select cursor position for options
	for i := range items {
		if len(items[i].options) > 0 {
			for j, opt := range items[i].options {
				if opt.value == items[i].value {
					items[i].cursor = j
					break
				}
			}
		}
	}

	return items
}

func initialTUIModel() tuiModel {
	provider := flagTTS
	if provider == "" {
		provider = "polly"
	}
	return tuiModel{
		items:  buildMenuItems(provider),
		cursor: idxInput,
		state:  stateMenu,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) generateIdx() int {
	return len(m.items) - 1
}

func (m tuiModel) isTextInput(idx int) bool {
	return idx == idxInput || idx == idxOutput || idx == idxTitle
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateMenu:
			return m.updateMenu(msg)
		case stateEditing:
			return m.updateEditing(msg)
		}
	}
	return m, nil
}

func (m tuiModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancelled = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter", " ":
		if m.cursor == m.generateIdx() {
			if m.items[idxInput].value == "" {
				m.err = fmt.Errorf("Input is required")
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		}

		if m.isTextInput(m.cursor) || len(m.items[m.cursor].options) > 0 {
			m.state = stateEditing
			m.items[m.cursor].editing = true
			m.err = nil
			return m, nil
		}
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := m.cursor
	item := &m.items[idx]

	if m.isTextInput(idx) {
		switch msg.String() {
		case "enter":
			item.editing = false
			m.state = stateMenu
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil
		case "esc":
			item.editing = false
			m.state = stateMenu
			return m, nil
		case "backspace":
			if len(item.value) > 0 {
				item.value = item.value[:len(item.value)-1]
			}
			return m, nil
		case "ctrl+u":
			item.value = ""
			return m, nil
		default:
			if msg.Type == tea.KeyRunes {
				item.value += string(msg.Runes)
			}
			return m, nil
		}
	}

	switch msg.String() {
	case "enter", " ":
		if item.cursor >= 0 && item.cursor < len(item.options) {
			item.value = item.options[item.cursor].value
		}
		item.editing = false
		m.state = stateMenu

		// Provider changed: rebuild engine and voice options for the new
		// provider and reset to its defaults.
		if idx == idxTTS {
			m.items[idxEngine].options = engineOptions(item.value)
			m.items[idxEngine].value = ""
			m.items[idxEngine].cursor = 0

			voiceOpts, defaultA, defaultB := voiceOptions(item.value)
			for _, v := range []struct {
				idx int
				def string
			}{{idxVoiceA, defaultA}, {idxVoiceB, defaultB}} {
				m.items[v.idx].options = voiceOpts
				m.items[v.idx].value = v.def
				m.items[v.idx].cursor = 0
				for j, opt := range voiceOpts {
					if opt.value == v.def {
						m.items[v.idx].cursor = j
						break
					}
				}
			}
		}

		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case "esc":
		item.editing = false
		m.state = stateMenu
		return m, nil

	case "up", "k":
		if item.cursor > 0 {
			item.cursor--
		}

	case "down", "j":
		if item.cursor < len(item.options)-1 {
			item.cursor++
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder

	title := titleStyle.Render("pdfcast")
	header := headerBorder.Render(title)
	b.WriteString(header)
	b.WriteString("\n")

	genIdx := m.generateIdx()

	for i, item := range m.items {
		isActive := m.cursor == i

		if i == genIdx {
			b.WriteString("\n")
			if isActive {
				b.WriteString("  " + buttonStyle.Render(" Generate "))
			} else {
				b.WriteString("  " + buttonDimStyle.Render(" Generate "))
			}
			b.WriteString("\n")
			continue
		}

		cursor := "  "
		if isActive {
			cursor = cursorStyle.Render("> ")
		}

		label := item.label
		if item.required {
			label = label + requiredStyle.Render("*")
		}
		renderedLabel := menuLabelStyle.Render(label)

		var renderedValue string
		if item.editing && m.isTextInput(i) {
			renderedValue = menuValueStyle.Render(item.value + "_")
		} else if item.value == "" {
			placeholder := "(not set)"
			switch i {
			case idxTitle:
				placeholder = "(optional — taken from the source)"
			case idxMinutes, idxEngine:
				if len(item.options) > 0 {
					placeholder = item.options[0].label
				}
			}
			renderedValue = menuValueDimStyle.Render(placeholder)
		} else {
			displayVal := item.value
			for _, opt := range item.options {
				if opt.value == item.value {
					displayVal = opt.label
					break
				}
			}
			renderedValue = menuValueStyle.Render(displayVal)
		}

		b.WriteString(cursor + renderedLabel + " " + renderedValue + "\n")

		if item.editing && len(item.options) > 0 && !m.isTextInput(i) {
			for j, opt := range item.options {
				if j == item.cursor {
					b.WriteString(selectedOptionStyle.Render("> "+opt.label) + "\n")
				} else {
					b.WriteString(optionStyle.Render("  "+opt.label) + "\n")
				}
			}
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	switch m.state {
	case stateMenu:
		b.WriteString(helpStyle.Render("  j/k or arrows to navigate | enter to edit | q to quit"))
	case stateEditing:
		if m.isTextInput(m.cursor) {
			b.WriteString(helpStyle.Render("  type value | enter to confirm | esc to cancel | ctrl+u to clear"))
		} else {
			b.WriteString(helpStyle.Render("  j/k or arrows to pick | enter to select | esc to cancel"))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func runInteractiveSetup() error {
	m := initialTUIModel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tuiModel)
	if final.cancelled {
		return fmt.Errorf("cancelled")
	}
	if !final.confirmed {
		return fmt.Errorf("generation cancelled")
	}

	flagInput = final.items[idxInput].value
	flagOutput = final.items[idxOutput].value
	flagTitle = final.items[idxTitle].value
	if v := final.items[idxMinutes].value; v != "" {
		flagMinutes, _ = strconv.Atoi(v)
	}
	flagModel = final.items[idxModel].value
	flagTTS = final.items[idxTTS].value
	flagEngine = final.items[idxEngine].value
	flagVoiceA = final.items[idxVoiceA].value
	flagVoiceB = final.items[idxVoiceB].value

	return nil
}
