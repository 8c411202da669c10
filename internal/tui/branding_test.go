package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/config"
)

func TestBanner(t *testing.T) {
	out := Banner("1.0.0-test")

	if !strings.Contains(out, "Code search & intelligence client") {
		t.Errorf("Expected banner to contain the tagline, got: %s", out)
	}
	// Check for border characters
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestBannerDevVersion(t *testing.T) {
	out := Banner("dev")
	if strings.Contains(out, "vdev") {
		t.Errorf("dev builds should not show a version tag, got: %s", out)
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, strings.TrimSpace(LogoLines[0])) {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestApplyTheme(t *testing.T) {
	orig := config.UIColors{
		Primary: string(PrimaryColor),
		Muted:   string(MutedColor),
		Info:    string(InfoColor),
	}
	t.Cleanup(func() { ApplyTheme(orig) })

	ApplyTheme(config.UIColors{Primary: "#000000", Info: ""})

	if PrimaryColor != lipgloss.Color("#000000") {
		t.Errorf("Expected primary color to be replaced, got %s", PrimaryColor)
	}
	if InfoColor != lipgloss.Color(orig.Info) {
		t.Errorf("Empty entries must keep the current color, got %s", InfoColor)
	}
}
