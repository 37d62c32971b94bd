package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.taskList(),
		m.logPane(),
	)
}

func (m *Model) taskList() string {
	var s strings.Builder

	title := "RECIPES"
	if m.Variant != "" {
		title += " " + m.Variant
	}
	s.WriteString(titleStyle.Render(title) + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Tasks))
	start := min(m.ListOffset, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderTaskRow(i, m.Tasks[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderTaskRow(index int, task *TaskNode) string {
	rowStyle := taskStyle(task.Status)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if task.Status == StatusPending || task.Status == StatusRunning {
			rowStyle = selectedStyle
		}
	}

	content := fmt.Sprintf("%s %s", taskIcon(task.Status), task.Name)
	if task.Status == StatusDone || task.Status == StatusError {
		content += " " + task.Duration.Round(time.Millisecond).String()
	}
	return cursor + rowStyle.Render(content)
}

func taskIcon(status TaskStatus) string {
	switch status {
	case StatusRunning:
		return "●"
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	case StatusDeferred:
		return style.Retry
	default:
		return "○"
	}
}

func taskStyle(status TaskStatus) lipgloss.Style {
	switch status {
	case StatusRunning:
		return taskRunningStyle
	case StatusDone:
		return taskDoneStyle
	case StatusError:
		return taskErrorStyle
	case StatusDeferred:
		return taskDeferredStyle
	default:
		return taskPendingStyle
	}
}

func (m *Model) logPane() string {
	if m.ActiveTaskName == "" {
		return logStyle.Render(titleStyle.Render("LOGS (Waiting...)"))
	}

	status := " (Manual)"
	if m.FollowMode {
		status = " (Following)"
	}
	header := titleStyle.Render("LOGS: " + m.ActiveTaskName + status)

	var content string
	if node, ok := m.TaskMap[m.ActiveTaskName]; ok {
		content = node.Term.View()
	}

	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
