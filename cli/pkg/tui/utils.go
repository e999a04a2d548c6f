package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/muesli/reflow/wordwrap"
)

func wordWrap(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	return strings.TrimRight(wordwrap.String(text, maxWidth), "\n")
}

func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// errorText is what the footer shows for err: local validation and upload
// guards verbatim, otherwise the server's message.
func errorText(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case client.IsValidationError(err),
		errors.Is(err, client.ErrFileTooLarge),
		errors.Is(err, client.ErrNotAnImage):
		return err.Error()
	}
	return apisdk.ErrorMessage(err, fallback)
}

// formatTimestamp renders t with layout when it falls on now's day and as a
// relative time otherwise.
func formatTimestamp(t, now time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < 24*time.Hour && t.Local().Day() == now.Local().Day() {
		return t.Local().Format(layout)
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func formatBytes(n int64) string {
	if n <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(n))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return humanize.Comma(int64(n)) + " " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}
