package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ConfirmActionType int

const (
	NoAction ConfirmActionType = iota
	LeaveRoomAction
	DeleteRoomAction
	AdminDeleteRoomAction
	LogoutAction
	QuitAction
	FileExplorerAction

	ModalWidth  = 60
	ModalHeight = 9
)

type notifyState struct {
	open          bool
	title         string
	content       string
	confirmAction ConfirmActionType
	target        string
}

func (m model) openNotice(title, content string) model {
	m.state.notify = notifyState{
		open:          true,
		title:         title,
		content:       content,
		confirmAction: NoAction,
	}
	return m
}

func (m model) openConfirm(action ConfirmActionType, title, content, target string) model {
	m.state.notify = notifyState{
		open:          true,
		title:         title,
		content:       content,
		confirmAction: action,
		target:        target,
	}
	return m
}

func (m model) openLeaveRoomModal(id, name string) model {
	return m.openConfirm(LeaveRoomAction,
		"Leave room?",
		fmt.Sprintf("You will stop receiving messages from #%s.", name),
		id,
	)
}

func (m model) openDeleteRoomModal(id, name string) model {
	return m.openConfirm(DeleteRoomAction,
		"Delete room?",
		fmt.Sprintf("#%s and all of its messages will be deleted for everyone.", name),
		id,
	)
}

func (m model) openAdminDeleteRoomModal(id, name string) model {
	return m.openConfirm(AdminDeleteRoomAction,
		"Delete room as administrator?",
		fmt.Sprintf("#%s will be removed and its members sent back to the room list.", name),
		id,
	)
}

func (m model) openLogoutModal() model {
	return m.openConfirm(LogoutAction, "Sign out?", "Your session token will be removed from this device.", "")
}

func (m model) closeModal() model {
	m.state.notify = notifyState{
		open: false,
	}
	return m
}

func (m model) NotifyUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	n := m.state.notify

	switch n.confirmAction {
	case FileExplorerAction:
		return m.fileExplorerUpdate(msg)
	case NoAction:
		if key.Matches(msg, keys.Enter) || key.Matches(msg, keys.Back) {
			return m.closeModal(), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Yes):
		m = m.closeModal()
		return m.confirm(n.confirmAction, n.target)
	case key.Matches(msg, keys.No), key.Matches(msg, keys.Back):
		return m.closeModal(), nil
	}

	return m, nil
}

func (m model) confirm(action ConfirmActionType, target string) (model, tea.Cmd) {
	switch action {
	case LeaveRoomAction:
		if m.page == chatPage {
			return m.leaveOpenRoom()
		}
		return m.leaveRoom(target)
	case DeleteRoomAction:
		if m.page == chatPage {
			return m.deleteOpenRoom()
		}
		return m.deleteRoom(target)
	case AdminDeleteRoomAction:
		return m.adminDeleteRoom(target)
	case LogoutAction:
		return m.logout()
	case QuitAction:
		return m.Quit()
	}
	return m, nil
}

func (m model) RenderModal() string {
	if !m.state.notify.open {
		return ""
	}
	if m.state.notify.confirmAction == FileExplorerAction {
		return m.RenderFileExplorerModal()
	}
	return m.RenderWarnModal()
}

func (m model) RenderWarnModal() string {
	var buttons string
	if m.state.notify.confirmAction == NoAction {
		buttons = m.renderOkButton()
	} else {
		buttons = m.renderConfirmCancelButtons()
	}

	innerWidth := ModalWidth - 4

	titleStyle := m.renderer.NewStyle().
		Foreground(m.theme.Accent()).
		Bold(true).
		AlignHorizontal(lipgloss.Center).
		Width(innerWidth)

	contentStyle := m.renderer.NewStyle().
		Foreground(m.theme.Body()).
		AlignHorizontal(lipgloss.Center).
		Width(innerWidth)

	title := titleStyle.Render(m.state.notify.title)
	content := contentStyle.Render(m.state.notify.content)

	modalContent := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		content,
		"",
		buttons,
	)

	modalStyle := m.theme.Modal().
		Width(ModalWidth).
		Padding(1, 2)

	return modalStyle.Render(modalContent)
}

func (m model) renderOkButton() string {
	innerWidth := ModalWidth - 4

	okButton := m.renderer.NewStyle().
		Foreground(m.theme.Highlight()).
		Bold(true).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Highlight()).
		Render("OK")

	return m.renderer.NewStyle().
		AlignHorizontal(lipgloss.Center).
		Width(innerWidth).
		Render(okButton)
}

func (m model) renderConfirmCancelButtons() string {
	innerWidth := ModalWidth - 4

	confirmButton := m.renderer.NewStyle().
		Foreground(m.theme.Highlight()).
		Bold(true).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Highlight()).
		Render("Yes (Y)")

	cancelButton := m.renderer.NewStyle().
		Foreground(m.theme.Body()).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border()).
		Render("No (N)")

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Center,
		confirmButton,
		"  ",
		cancelButton,
	)

	return m.renderer.NewStyle().
		AlignHorizontal(lipgloss.Center).
		Width(innerWidth).
		Render(buttons)
}
