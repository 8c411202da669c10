package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/srcview/internal/config"
)

const AppName = "srcview"

// ASCII art logo lines for srcview - canonical definition
var LogoLines = []string{
	"▄▀▀ █▀▄ ▄▀▀ █ █ █ ██▀ █   █",
	" ▀▄ █▀▄ █   ▀▄▀ █ █▄▄ █ █ █",
	"▄▄▀ █ █ ▀▄▄  █  █ █▄▄ ▀▄▀▄▀",
}

const CompactLogo = `srcview ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#A78BFA"),
	lipgloss.Color("#60A5FA"),
	lipgloss.Color("#4ECDC4"),
}

// Palette. ApplyTheme replaces these from the ui.colors config section.
var (
	PrimaryColor   = lipgloss.Color("#A78BFA")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	InfoColor    = lipgloss.Color("#60A5FA")
	WarnColor    = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

// Styled components
var (
	LogoStyle         lipgloss.Style
	TitleStyle        lipgloss.Style
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	SelectedItemStyle lipgloss.Style
	HelpStyle         lipgloss.Style
	TimeStyle         lipgloss.Style
	SeparatorStyle    lipgloss.Style

	// Banner styles, one per index state outcome
	InfoBannerStyle    lipgloss.Style
	SuccessBannerStyle lipgloss.Style
	DangerBannerStyle  lipgloss.Style

	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style

	// Empty style for resetting
	EmptyStyle = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	banner := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MarginTop(1).
		MarginBottom(1)
	InfoBannerStyle = banner.BorderForeground(InfoColor).Foreground(InfoColor)
	SuccessBannerStyle = banner.BorderForeground(SuccessColor).Foreground(SuccessColor)
	DangerBannerStyle = banner.BorderForeground(ErrorColor).Foreground(ErrorColor)

	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// ApplyTheme swaps the palette for the configured colors. Empty entries keep
// the built-in color.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	set(&InfoColor, c.Info)
	buildStyles()
}

// StatusBarStyleWithPadding returns a properly formatted status bar style with padding
func StatusBarStyleWithPadding() lipgloss.Style {
	return StatusBarStyle.Padding(0, 1)
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Type a query and press Enter • alt+enter opens in browser")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the version banner printed by the CLI.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	// Dynamic version tagline
	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("Code search & intelligence client %s", versionTag))
	} else {
		lines = append(lines, "Code search & intelligence client")
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}

		colorIdx := i % len(BannerColors)
		style := lipgloss.NewStyle().
			Foreground(BannerColors[colorIdx]).
			Bold(i < len(LogoLines)) // Bold for logo, normal for tagline

		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	banner := borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	return lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render(banner)
}

// ShowBanner prints the version banner to stdout.
func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
