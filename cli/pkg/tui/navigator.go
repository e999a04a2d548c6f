package tui

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hilthontt/parley/internal/client"
)

const (
	AdminPath       = "/admin"
	ProfilePath     = "/profile"
	ProfileEditPath = "/profile/edit"
	SettingsPath    = "/settings"
	MenuPath        = "/menu"
)

func roomPath(id string) string {
	return client.RoomsPath + "/" + id
}

type route struct {
	page   page
	roomID string
}

// parseRoute maps a location onto a page. Unknown paths report false.
func parseRoute(path string) (route, bool) {
	path = "/" + strings.Trim(path, "/")

	switch path {
	case client.LoginPath:
		return route{page: loginPage}, true
	case client.RegisterPath:
		return route{page: registerPage}, true
	case client.RoomsPath:
		return route{page: roomsPage}, true
	case AdminPath:
		return route{page: adminPage}, true
	case ProfilePath:
		return route{page: profilePage}, true
	case ProfileEditPath:
		return route{page: profileEditPage}, true
	case SettingsPath:
		return route{page: settingsPage}, true
	case MenuPath:
		return route{page: menuPage}, true
	}

	if id, ok := strings.CutPrefix(path, client.RoomsPath+"/"); ok && id != "" && !strings.Contains(id, "/") {
		return route{page: chatPage, roomID: id}, true
	}
	return route{}, false
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth")
}

type navigateMsg struct {
	path string
}

// Navigator is the location of the UI as seen from outside the event loop.
// The model records every page it shows; Navigate asks the running program
// to move.
type Navigator struct {
	mu   sync.RWMutex
	path string
	send func(tea.Msg)
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

// Bind attaches the program that receives navigation requests.
func (n *Navigator) Bind(p *tea.Program) {
	n.bind(p.Send)
}

func (n *Navigator) bind(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

func (n *Navigator) CurrentPath() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.path
}

// Navigate never blocks: it may be called from a command goroutine while the
// event loop is busy.
func (n *Navigator) Navigate(path string) {
	n.mu.RLock()
	send := n.send
	n.mu.RUnlock()

	if send == nil {
		return
	}
	go send(navigateMsg{path: path})
}

func (n *Navigator) setPath(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
}
