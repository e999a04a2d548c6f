package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const CurrentVersion = "v0.1.0"

var (
	HomeDir       = xdg.Home
	ParleyMainDir = filepath.Join(xdg.ConfigHome, "parley")
	ParleyDataDir = filepath.Join(xdg.DataHome, "parley")

	// MainDir files
	SettingsFile = filepath.Join(ParleyMainDir, "settings.json")
)
