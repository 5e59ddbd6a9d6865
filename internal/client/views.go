package client

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	sections := []string{
		a.renderChannelBar(),
		a.renderTranscript(),
	}
	if a.info != "" {
		sections = append(sections, a.renderInfo())
	}
	sections = append(sections,
		a.renderInputRow(),
		a.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderChannelBar renders the joined channels, active one highlighted
func (a *App) renderChannelBar() string {
	chans := a.store.Channels()
	if len(chans) == 0 {
		return a.styles.Status.Render(" No channels, /join #channel to start")
	}

	active, _ := a.store.Active()
	tabs := make([]string, 0, len(chans))
	for _, ch := range chans {
		style := a.styles.Channel
		if ch == active {
			style = a.styles.ChannelActive
		}
		label := ch
		if a.stopped[ch] {
			label += " ✗"
		}
		tabs = append(tabs, style.Render(label))
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return lipgloss.NewStyle().MaxWidth(a.width).Render(bar)
}

// renderTranscript renders the active channel's transcript
func (a *App) renderTranscript() string {
	style := a.styles.Border
	if a.focus == FocusChat {
		style = a.styles.BorderFocused
	}
	return style.
		Width(a.viewport.Width).
		Height(a.viewport.Height).
		Render(a.viewport.View())
}

// renderInfo renders multi-line command output
func (a *App) renderInfo() string {
	return a.styles.Status.
		Width(a.width).
		Padding(0, 1).
		Render(strings.TrimRight(a.info, "\n"))
}

// renderInputRow renders the nickname field beside the message input
func (a *App) renderInputRow() string {
	nickStyle := a.styles.Border
	if a.focus == FocusNick {
		nickStyle = a.styles.BorderFocused
	}
	nick := nickStyle.
		Width(a.nickInput.Width + 2).
		Render(a.nickInput.View())

	inputStyle := a.styles.Border
	if a.focus == FocusInput {
		inputStyle = a.styles.BorderFocused
	}
	var body string
	if active, ok := a.store.Active(); ok && a.stopped[active] {
		body = a.styles.Disabled.Render("Disconnected, input disabled")
	} else {
		body = a.input.View()
	}
	width := a.width - lipgloss.Width(nick) - 2
	if width < 10 {
		width = 10
	}
	input := inputStyle.Width(width).Render(body)

	return lipgloss.JoinHorizontal(lipgloss.Top, nick, input)
}

// renderStatusBar renders connection state, status message and key hints
func (a *App) renderStatusBar() string {
	var left string
	if a.connected {
		left = a.styles.Status.Render("● Connected")
	} else {
		left = a.styles.Error.Render("○ Disconnected")
	}

	center := ""
	if a.statusMessage != "" {
		if a.statusError {
			center = a.styles.Error.Render(a.statusMessage)
		} else {
			center = a.styles.Status.Render(a.statusMessage)
		}
	}

	right := a.styles.Status.Render("Tab: Focus  |  /help  |  Ctrl+C: Quit")

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right) - 4
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(a.width).Render(left + "  " + center)
	}
	return " " + left + "  " + center + strings.Repeat(" ", gap) + right + " "
}
