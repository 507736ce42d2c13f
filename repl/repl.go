// Package repl implements the Read-Eval-Print Loop for the mask
// programming language.
//
// The REPL provides an interactive interface for users to enter mask
// source, have it evaluated against a persistent [vm.Engine], and see
// results immediately. It uses the Charm libraries (Bubbletea, Bubbles,
// and Lipgloss) to create a terminal interface with syntax highlighting
// and command history.
//
// Key features:
//   - Interactive command input and execution against one long-lived Engine
//   - Command history tracking
//   - Styled output with different colors for results and errors
//   - Indentation-aware multiline entry: a block-opening header (if,
//     while, for, loop, fn, catch) keeps collecting lines until a blank
//     line submits the buffer, mirroring how the language itself expects
//     an indented suite rather than a bracket pair.
//
// The main entry point is Start, which initializes and runs the REPL
// with the given username.
package repl

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scizzorz/mask/lexer"
	"github.com/scizzorz/mask/token"
	"github.com/scizzorz/mask/vm"
)

const (
	// Prompt is the default prompt for the REPL.
	Prompt = ">> "

	// ContPrompt is the continuation prompt used in multiline input mode.
	ContPrompt = ".. "
)

// Options contains configuration options for the REPL.
type Options struct {
	NoColor bool // Disable syntax highlighting and colored output
	Debug   bool // Enable debug mode with more verbose output
}

// Start initializes and runs the REPL with the given username and options.
func Start(username string, options Options) {
	p := tea.NewProgram(initialModel(username, options))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
	}
}

// Styling
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	staticErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5F87")).
				Bold(true)

	runtimeErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF8700")).
				Bold(true)

	errorTipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF79C6")).
			Bold(true)

	identifierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2"))

	literalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	operatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	stringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))
)

// ErrorType represents the type of error that occurred.
type ErrorType int

const (
	NoError ErrorType = iota
	StaticError
	RuntimeError
)

// evalResultMsg is the async result of one evaluation.
type evalResultMsg struct {
	output    string
	isError   bool
	errorType ErrorType
	elapsed   time.Duration
}

// model is the REPL's Elm-architecture state.
type model struct {
	textInput       textinput.Model
	history         []historyEntry
	engine          *vm.Engine
	username        string
	evaluating      bool
	currentInput    string
	multilineBuffer string
	isMultiline     bool
	snippetNum      int
	spinner         spinner.Model
	options         Options
}

func (m model) applyStyle(style lipgloss.Style, text string) string {
	if m.options.NoColor {
		return text
	}
	return style.Render(text)
}

type historyEntry struct {
	input          string
	output         string
	isError        bool
	errorType      ErrorType
	evaluationTime time.Duration
}

func initialModel(username string, options Options) model {
	ti := textinput.New()
	ti.Placeholder = "Enter mask code"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return model{
		textInput: ti,
		engine:    vm.New(),
		username:  username,
		spinner:   s,
		options:   options,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// blockHeader reports whether line opens an indented block — the
// indentation-language analogue of the unbalanced-bracket check a
// brace-delimited REPL would use, since mask has no closing token to
// look for until the block's dedent actually happens.
func blockHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	l := lexer.New(trimmed)
	tok := l.NextToken()
	switch tok.Type {
	case token.If, token.Else, token.While, token.For, token.Loop, token.Fn, token.Catch:
		return true
	default:
		return false
	}
}

// evalCmd evaluates src against engine asynchronously, capturing whatever
// `print` wrote (engine output is redirected to a buffer for the
// duration) as the result text.
func evalCmd(engine *vm.Engine, name, src string, debug bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		var buf bytes.Buffer

		mod, err := vm.Compile(name, src)
		if err != nil {
			elapsed := time.Since(start)
			if debug {
				fmt.Printf("DEBUG: compile error after %v: %v\n", elapsed, err)
			}
			return evalResultMsg{
				output:    formatStaticError(err),
				isError:   true,
				errorType: StaticError,
				elapsed:   elapsed,
			}
		}

		runErr := engine.RunCaptured(mod, &buf)
		elapsed := time.Since(start)

		if debug {
			fmt.Printf("DEBUG: module %q ran in %v\n", name, elapsed)
		}

		if runErr != nil {
			return evalResultMsg{
				output:    formatRuntimeError(runErr.Error()),
				isError:   true,
				errorType: RuntimeError,
				elapsed:   elapsed,
			}
		}

		output := buf.String()
		if output == "" {
			output = "(no output)"
		}
		return evalResultMsg{output: output, elapsed: elapsed}
	}
}

func (m model) formatError(style lipgloss.Style, entry *historyEntry, s *strings.Builder) {
	parts := strings.Split(entry.output, "\nTips:")
	if len(parts) > 1 {
		if m.options.NoColor {
			s.WriteString(parts[0])
			s.WriteString("\n")
			s.WriteString("Tips:" + parts[1])
		} else {
			s.WriteString(style.Render(parts[0]))
			s.WriteString("\n")
			s.WriteString(errorTipStyle.Render("Tips:" + parts[1]))
		}
		return
	}
	if m.options.NoColor {
		s.WriteString(entry.output)
	} else {
		s.WriteString(style.Render(entry.output))
	}
}

// Update handles all updates to the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{
			input:          m.currentInput,
			output:         msg.output,
			isError:        msg.isError,
			errorType:      msg.errorType,
			evaluationTime: msg.elapsed,
		})
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if input == "" {
				if m.isMultiline {
					if m.multilineBuffer == "" {
						m.isMultiline = false
						return m, nil
					}
					submitCmd := m.submit(m.multilineBuffer)
					return m, submitCmd
				}
				return m, nil
			}

			if m.isMultiline {
				m.multilineBuffer += "\n" + input
				m.textInput.SetValue("")
				return m, nil
			}

			if blockHeader(input) {
				m.isMultiline = true
				m.multilineBuffer = input
				m.textInput.SetValue("")
				return m, nil
			}

			submitCmd := m.submit(input)
			return m, submitCmd
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

// submit starts evaluating src in the background and returns the
// bubbletea command that will deliver its result.
func (m *model) submit(src string) tea.Cmd {
	m.evaluating = true
	m.currentInput = src
	m.textInput.SetValue("")
	m.isMultiline = false
	m.multilineBuffer = ""
	m.snippetNum++
	name := fmt.Sprintf("repl-%d", m.snippetNum)
	return evalCmd(m.engine, name, src, m.options.Debug)
}

// View renders the current UI.
func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.applyStyle(titleStyle, " mask REPL "))
	s.WriteString("\n")

	if m.username != "" {
		s.WriteString(fmt.Sprintf("\nHello %s! Feel free to type in commands\n", m.username))
	}
	s.WriteString("\n")

	for _, entry := range m.history {
		lines := strings.Split(entry.input, "\n")
		for i, line := range lines {
			if i == 0 {
				s.WriteString(m.applyStyle(promptStyle, Prompt))
			} else {
				s.WriteString(m.applyStyle(promptStyle, ContPrompt))
			}
			s.WriteString(m.highlightLine(line))
			s.WriteString("\n")
		}

		if entry.isError {
			switch entry.errorType {
			case StaticError:
				m.formatError(staticErrorStyle, &entry, &s)
			case RuntimeError:
				m.formatError(runtimeErrorStyle, &entry, &s)
			default:
				if m.options.NoColor {
					s.WriteString(entry.output)
				} else {
					s.WriteString(errorStyle.Render(entry.output))
				}
			}
		} else {
			if m.options.NoColor {
				s.WriteString(entry.output)
			} else {
				s.WriteString(resultStyle.Render(entry.output))
			}
		}

		if entry.evaluationTime > 10*time.Millisecond {
			timeStr := fmt.Sprintf(" (%.2fs)", entry.evaluationTime.Seconds())
			if m.options.NoColor {
				s.WriteString(timeStr)
			} else {
				s.WriteString(historyStyle.Render(timeStr))
			}
		}

		s.WriteString("\n\n")
	}

	if m.evaluating {
		s.WriteString(m.applyStyle(promptStyle, Prompt))
		s.WriteString(m.highlightLine(m.currentInput))
		s.WriteString("\n")
		s.WriteString(m.spinner.View())
		s.WriteString(" Evaluating...")
		s.WriteString("\n\n")
	}

	if m.isMultiline && !m.evaluating {
		s.WriteString(m.applyStyle(historyStyle, "Current multiline input:\n"))
		s.WriteString(m.highlightLine(m.multilineBuffer))
		s.WriteString("\n")
	}

	if !m.evaluating {
		if m.isMultiline {
			m.textInput.Prompt = m.applyStyle(promptStyle, ContPrompt)
		} else {
			m.textInput.Prompt = m.applyStyle(promptStyle, Prompt)
		}
		s.WriteString(m.textInput.View())
		s.WriteString("\n")
	}

	helpText := "\nPress Esc or Ctrl+C/D to exit"
	if m.isMultiline {
		helpText += " | Multiline mode: enter a blank line to evaluate"
	} else {
		helpText += " | if/while/for/loop/fn/catch headers open multiline entry"
	}
	s.WriteString(m.applyStyle(historyStyle, helpText))

	return s.String()
}

func formatStaticError(err error) string {
	var s strings.Builder
	s.WriteString("Static error:\n")
	s.WriteString("  " + err.Error() + "\n")
	s.WriteString("\nTips:\n")
	s.WriteString("  • Check indentation — blocks are opened by a deeper indent, not braces\n")
	s.WriteString("  • Strings are single-quoted\n")
	return s.String()
}

func formatRuntimeError(msg string) string {
	var s strings.Builder
	s.WriteString("Runtime error:\n")
	s.WriteString("  " + msg + "\n")
	s.WriteString("\nTips:\n")
	switch {
	case strings.Contains(msg, "Not callable"):
		s.WriteString("  • Check that the value you're calling is actually a function\n")
	case strings.Contains(msg, "Bad arguments"):
		s.WriteString("  • Check the types and count of arguments passed\n")
	case strings.Contains(msg, "Assertion failure"):
		s.WriteString("  • An assert(...) call received a falsy value\n")
	default:
		s.WriteString("  • Wrap risky code in a catch block to inspect the exception value\n")
	}
	return s.String()
}

// highlightLine applies simple token-based syntax highlighting to one
// line of mask source.
func (m model) highlightLine(line string) string {
	if line == "" {
		return ""
	}
	l := lexer.New(line)
	var s strings.Builder
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF || tok.Type == token.End {
			break
		}
		switch {
		case token.IsKeyword(tok.Type):
			s.WriteString(m.applyStyle(keywordStyle, tok.Literal))
		case tok.Type == token.Name:
			s.WriteString(m.applyStyle(identifierStyle, tok.Literal))
		case tok.Type == token.Int || tok.Type == token.Float || tok.Type == token.True || tok.Type == token.False || tok.Type == token.Null:
			s.WriteString(m.applyStyle(literalStyle, tok.Literal))
		case tok.Type == token.Str:
			s.WriteString(m.applyStyle(stringStyle, "'"+tok.Literal+"'"))
		case tok.Type == token.Illegal || tok.Type == token.UnclosedStr || tok.Type == token.TabChar:
			s.WriteString(m.applyStyle(errorStyle, tok.Literal))
		default:
			s.WriteString(m.applyStyle(operatorStyle, tok.Literal))
		}
		s.WriteString(" ")
	}
	return strings.TrimRight(s.String(), " ")
}
