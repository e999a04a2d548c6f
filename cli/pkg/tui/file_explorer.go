package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// explorerPurpose decides which files are listed and where the pick goes.
type explorerPurpose int

const (
	attachPurpose explorerPurpose = iota
	avatarPurpose
)

type fileExplorerEntry struct {
	name  string
	isDir bool
}

type fileExplorerState struct {
	purpose    explorerPurpose
	limit      int64
	currentDir string
	entries    []fileExplorerEntry
	cursor     int
	err        string
}

type fileSelectedMsg struct {
	path    string
	purpose explorerPurpose
}

func loadDir(dir string, imagesOnly bool) ([]fileExplorerEntry, error) {
	raw, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs, files []fileExplorerEntry
	for _, e := range raw {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch {
		case e.IsDir():
			dirs = append(dirs, fileExplorerEntry{name: e.Name(), isDir: true})
		case !e.Type().IsRegular():
		case !imagesOnly || isImageFile(e.Name()):
			files = append(files, fileExplorerEntry{name: e.Name()})
		}
	}

	// Parent directory shortcut (skip at filesystem root)
	entries := []fileExplorerEntry{}
	if filepath.Dir(dir) != dir {
		entries = append(entries, fileExplorerEntry{name: "..", isDir: true})
	}
	entries = append(entries, dirs...)
	entries = append(entries, files...)
	return entries, nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "/"
}

func (m model) openFileExplorer(purpose explorerPurpose) model {
	limit, title := m.deps.Chat.MaxAttachmentBytes, "Attach File"
	if purpose == avatarPurpose {
		limit, title = m.deps.Chat.MaxAvatarBytes, "Select Avatar"
	}

	fe := fileExplorerState{purpose: purpose, limit: limit}
	fe = fe.chdir(homeDir())

	m.state.explorer = fe
	m.state.notify = notifyState{
		open:          true,
		title:         title,
		confirmAction: FileExplorerAction,
	}
	return m
}

// chdir lists dir, keeping the current listing when dir cannot be read.
func (fe fileExplorerState) chdir(dir string) fileExplorerState {
	entries, err := loadDir(dir, fe.purpose == avatarPurpose)
	if err != nil {
		fe.err = fmt.Sprintf("Cannot read %s: %v", dir, err)
		return fe
	}
	fe.currentDir = dir
	fe.entries = entries
	fe.cursor = 0
	fe.err = ""
	return fe
}

func (m model) fileExplorerUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	fe := &m.state.explorer

	switch msg.String() {
	case "~":
		*fe = fe.chdir(homeDir())

	case "esc":
		return m.closeModal(), nil

	case "up", "k":
		if fe.cursor > 0 {
			fe.cursor--
		}

	case "down", "j":
		if fe.cursor < len(fe.entries)-1 {
			fe.cursor++
		}

	case "enter", "right", "l":
		if len(fe.entries) == 0 {
			break
		}
		selected := fe.entries[fe.cursor]

		if selected.isDir {
			next := filepath.Join(fe.currentDir, selected.name)
			if selected.name == ".." {
				next = filepath.Dir(fe.currentDir)
			}
			*fe = fe.chdir(next)
			break
		}

		selectedPath := filepath.Join(fe.currentDir, selected.name)
		info, err := os.Stat(selectedPath)
		if err != nil {
			fe.err = fmt.Sprintf("Cannot read %s: %v", selected.name, err)
			break
		}
		if fe.limit > 0 && info.Size() > fe.limit {
			fe.err = fmt.Sprintf("%s is larger than %s", selected.name, humanize.IBytes(uint64(fe.limit)))
			break
		}

		purpose := fe.purpose
		m = m.closeModal()
		return m, func() tea.Msg {
			return fileSelectedMsg{path: selectedPath, purpose: purpose}
		}

	case "left", "h", "backspace":
		parent := filepath.Dir(fe.currentDir)
		if parent == fe.currentDir {
			break // already at root
		}

		prevDirName := filepath.Base(fe.currentDir)
		*fe = fe.chdir(parent)

		// Find the child dir we came from and restore cursor there
		for i, e := range fe.entries {
			if e.name == prevDirName {
				fe.cursor = i
				break
			}
		}
	}

	return m, nil
}

// describe summarises the entry under the cursor: type, size and age.
func (fe fileExplorerState) describe() string {
	if len(fe.entries) == 0 {
		return ""
	}
	selected := fe.entries[fe.cursor]
	if selected.isDir {
		return ""
	}

	path := filepath.Join(fe.currentDir, selected.name)
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	parts := []string{humanize.IBytes(uint64(info.Size())), humanize.Time(info.ModTime())}
	if mtype, err := mimetype.DetectFile(path); err == nil {
		parts = append([]string{mtype.String()}, parts...)
	}
	return strings.Join(parts, "  •  ")
}

const (
	feModalWidth  = 60
	feModalHeight = 22
	feHeaderLines = 4 // title + path + separator + padding
	feFooterLines = 3 // scroll indicator + separator + keybinds
)

func (m model) RenderFileExplorerModal() string {
	fe := m.state.explorer

	borderStyle := m.theme.Modal().
		Width(feModalWidth).
		Padding(0, 1)

	titleStyle := m.theme.TextBrand().Bold(true)
	dimStyle := m.theme.TextMuted()
	dirStyle := m.theme.TextAccent().Bold(true)
	fileStyle := m.theme.TextBody()
	cursorStyle := m.theme.Base().Foreground(m.theme.Highlight()).Bold(true)

	sb := strings.Builder{}

	sb.WriteString(titleStyle.Render("  " + m.state.notify.title))
	sb.WriteString("\n")

	dirPath := fe.currentDir
	maxPathLen := feModalWidth - 4
	if utf8.RuneCountInString(dirPath) > maxPathLen {
		runes := []rune(dirPath)
		dirPath = "…" + string(runes[len(runes)-(maxPathLen-1):])
	}
	sb.WriteString(dimStyle.Render("  " + dirPath))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", feModalWidth-2)))
	sb.WriteString("\n")

	if meta := fe.describe(); meta != "" {
		sb.WriteString(dimStyle.Render("  " + truncate(meta, feModalWidth-4)))
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(strings.Repeat("─", feModalWidth-2)))
		sb.WriteString("\n")
	}

	if fe.err != "" {
		sb.WriteString(m.theme.TextError().Render("  ⚠  " + truncate(fe.err, feModalWidth-8)))
		sb.WriteString("\n")
	}

	listHeight := feModalHeight - feHeaderLines - feFooterLines
	total := len(fe.entries)

	// Keep the cursor centred in the window
	windowStart := max(fe.cursor-listHeight/2, 0)
	if windowStart+listHeight > total {
		windowStart = max(0, total-listHeight)
	}
	windowEnd := min(windowStart+listHeight, total)

	if total == 0 {
		empty := "  (no files or subdirectories found)"
		if fe.purpose == avatarPurpose {
			empty = "  (no images or subdirectories found)"
		}
		sb.WriteString(dimStyle.Render(empty))
		sb.WriteString("\n")
	}

	for i := windowStart; i < windowEnd; i++ {
		entry := fe.entries[i]

		var icon, label string
		switch {
		case entry.name == "..":
			icon, label = "⬆  ", dirStyle.Render(entry.name+"/")
		case entry.isDir:
			icon, label = "📁 ", dirStyle.Render(entry.name+"/")
		case isImageFile(entry.name):
			icon, label = "🖼  ", fileStyle.Render(entry.name)
		default:
			icon, label = "📄 ", fileStyle.Render(entry.name)
		}

		row := "  " + icon + label
		if i == fe.cursor {
			row = cursorStyle.Render("▶ ") + icon + label
		}

		sb.WriteString("  " + row)
		sb.WriteString("\n")
	}

	if total > listHeight {
		shown := fmt.Sprintf("%d–%d of %d", windowStart+1, windowEnd, total)
		sb.WriteString(dimStyle.Render("  " + shown))
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render(strings.Repeat("─", feModalWidth-2)))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  ↑/↓ navigate  ←/→ enter/exit dir  Enter select  Esc cancel"))

	return borderStyle.Render(sb.String())
}

// fileSelected routes a pick to the page that opened the explorer.
func (m model) fileSelected(msg fileSelectedMsg) (model, tea.Cmd) {
	switch {
	case msg.purpose == attachPurpose && m.page == chatPage:
		m.state.chat.attachment = msg.path
		return m.resizeChat(), nil
	case msg.purpose == avatarPurpose && m.page == profileEditPage:
		return m.uploadAvatar(msg.path)
	}
	return m, nil
}
