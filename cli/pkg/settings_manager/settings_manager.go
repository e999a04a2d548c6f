package settings_manager

const (
	AutoScrollSticky = "sticky"
	AutoScrollAlways = "always"

	Clock24h = "24h"
	Clock12h = "12h"
)

// UserConfig holds the preferences edited on the settings page.
type UserConfig struct {
	AutoScroll  string `json:"autoScroll"`
	ClockFormat string `json:"clockFormat"`
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		AutoScroll:  AutoScrollSticky,
		ClockFormat: Clock24h,
	}
}

// TimeLayout is the time.Format layout for ClockFormat.
func (c *UserConfig) TimeLayout() string {
	if c != nil && c.ClockFormat == Clock12h {
		return "3:04 PM"
	}
	return "15:04"
}

type SettingsManager interface {
	SetUserConfig(config *UserConfig) error
	GetUserConfig() *UserConfig
}
