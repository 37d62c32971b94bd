// Package tui renders recipe progress as an interactive terminal UI: a list
// of recipes beside the live output of the selected one.
package tui

import (
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
)

const (
	taskListWidthRatio = 0.3
	logPaneBorderWidth = 4
)

// TaskStatus represents the current state of a recipe.
type TaskStatus string

const (
	// StatusPending indicates the recipe is queued.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the recipe is being processed.
	StatusRunning TaskStatus = "Running"
	// StatusDone indicates the recipe finished successfully.
	StatusDone TaskStatus = "Done"
	// StatusError indicates the recipe failed.
	StatusError TaskStatus = "Error"
	// StatusDeferred indicates the recipe went back to the queue behind a
	// missing dependency.
	StatusDeferred TaskStatus = "Deferred"
)

// PlanMsg seeds the list with the recipes queued for a variant.
type PlanMsg struct {
	Variant string
	Recipes []string
}

// TaskStartMsg reports that a recipe task began.
type TaskStartMsg struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// TaskLogMsg carries build output of a running task.
type TaskLogMsg struct {
	SpanID string
	Data   []byte
}

// TaskCompleteMsg reports the outcome of a task.
type TaskCompleteMsg struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// LogLineMsg is printed above the UI, outside of any recipe's pane.
type LogLineMsg struct {
	Line string
}

// TaskNode is one row of the recipe list.
type TaskNode struct {
	Name      string
	Status    TaskStatus
	Term      *Vterm
	StartTime time.Time
	Duration  time.Duration
}

// Model is the bubbletea model of the build UI.
type Model struct {
	Variant        string
	Tasks          []*TaskNode
	TaskMap        map[string]*TaskNode
	SpanMap        map[string]*TaskNode
	ActiveTaskName string
	SelectedIdx    int
	ListOffset     int
	ListHeight     int
	LogWidth       int
	LogHeight      int
	FollowMode     bool
	// Interrupted is set when the user quits before the build ends.
	Interrupted bool
}

// NewModel creates an empty model rendering on w. A nil w means stderr.
func NewModel(w io.Writer) Model {
	lipgloss.SetColorProfile(output.New(w).Profile)

	return Model{
		Tasks:      make([]*TaskNode, 0),
		TaskMap:    make(map[string]*TaskNode),
		SpanMap:    make(map[string]*TaskNode),
		FollowMode: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case PlanMsg:
		m.Variant = msg.Variant
		for _, name := range msg.Recipes {
			m.task(name).Status = StatusPending
		}

	case TaskStartMsg:
		node := m.task(msg.Name)
		node.Status = StatusRunning
		node.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.selectTask(msg.Name)
		}

	case TaskLogMsg:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Term.Write(msg.Data)
		}

	case TaskCompleteMsg:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			break
		}
		delete(m.SpanMap, msg.SpanID)
		node.Duration = msg.EndTime.Sub(node.StartTime)
		switch {
		case errors.Is(msg.Err, domain.ErrRecipeDeferred):
			node.Status = StatusDeferred
		case msg.Err != nil:
			node.Status = StatusError
		default:
			node.Status = StatusDone
		}

	case LogLineMsg:
		return m, tea.Println(msg.Line)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Interrupted = true
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.FollowMode = false
			m.SelectedIdx--
			m.updateActiveView()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Tasks)-1 {
			m.FollowMode = false
			m.SelectedIdx++
			m.updateActiveView()
		}
	case "esc":
		m.FollowMode = true
		for _, t := range m.Tasks {
			if t.Status == StatusRunning {
				m.selectTask(t.Name)
				break
			}
		}
	default:
		if node := m.selectedTask(); node != nil {
			node.Term.Update(msg)
		}
	}
	return nil
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * taskListWidthRatio)
	m.LogWidth = width - listWidth - logPaneBorderWidth
	m.LogHeight = height - lipgloss.Height(titleStyle.Render("LOGS"))
	m.ListHeight = height - lipgloss.Height(titleStyle.Render("RECIPES")+"\n\n")
	m.ensureVisible()

	for _, node := range m.Tasks {
		node.Term.SetWidth(m.LogWidth)
		node.Term.SetHeight(m.LogHeight)
	}
}

// task returns the row for name, appending one for recipes discovered
// while the variant runs.
func (m *Model) task(name string) *TaskNode {
	if node, ok := m.TaskMap[name]; ok {
		return node
	}

	term := NewVterm()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		term.SetWidth(m.LogWidth)
		term.SetHeight(m.LogHeight)
	}
	node := &TaskNode{Name: name, Status: StatusPending, Term: term}
	m.Tasks = append(m.Tasks, node)
	m.TaskMap[name] = node
	return node
}

func (m *Model) selectTask(name string) {
	for i, t := range m.Tasks {
		if t.Name == name {
			m.SelectedIdx = i
			break
		}
	}
	m.updateActiveView()
}

func (m *Model) selectedTask() *TaskNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Tasks) {
		return m.Tasks[m.SelectedIdx]
	}
	return nil
}

func (m *Model) updateActiveView() {
	m.ensureVisible()
	node := m.selectedTask()
	if node == nil {
		return
	}
	m.ActiveTaskName = node.Name
	if m.FollowMode {
		node.Term.ScrollToBottom()
	}
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}
