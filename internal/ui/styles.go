package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// IsTTY indicates whether stdout is an interactive terminal.
// When false, UI functions produce plain text without colors or decorations.
var IsTTY = term.IsTerminal(os.Stdout.Fd())

// ═══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Gold   = lipgloss.Color("#F4D03F")
	Copper = lipgloss.Color("#DC7633")
	Purple = lipgloss.Color("#9B59B6")
	Blue   = lipgloss.Color("#5DADE2")
	Cyan   = lipgloss.Color("#76D7C4")
	Green  = lipgloss.Color("#58D68D")
	Pink   = lipgloss.Color("#FF6B9D")

	White    = lipgloss.Color("#FDFEFE")
	Gray     = lipgloss.Color("#AAB7B8")
	DarkGray = lipgloss.Color("#5D6D7E")
	Black    = lipgloss.Color("#1C2833")
)

// ═══════════════════════════════════════════════════════════════════════════════
// TEXT STYLES
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Success = lipgloss.NewStyle().
		Foreground(Green)

	Error = lipgloss.NewStyle().
		Foreground(Pink).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Copper)

	Info = lipgloss.NewStyle().
		Foreground(Blue)

	// Muted/secondary text
	Muted = lipgloss.NewStyle().
		Foreground(Gray)

	Highlight = lipgloss.NewStyle().
			Foreground(Gold).
			Bold(true)

	// Code/path style
	Code = lipgloss.NewStyle().
		Foreground(Cyan)

	// Diff fragments
	Inserted = lipgloss.NewStyle().
			Foreground(Green)
	Deleted = lipgloss.NewStyle().
		Foreground(Pink).
		Strikethrough(true)
)

// ═══════════════════════════════════════════════════════════════════════════════
// BADGES
// ═══════════════════════════════════════════════════════════════════════════════

var baseBadge = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true)

// StatusOK returns the success status badge
func StatusOK() string {
	if !IsTTY {
		return "[OK]"
	}
	return baseBadge.Background(Green).Foreground(White).Render("✓")
}

// StatusWarn returns the warning status badge
func StatusWarn() string {
	if !IsTTY {
		return "[!]"
	}
	return baseBadge.Background(Copper).Foreground(White).Render("!")
}

// StatusError returns the error status badge
func StatusError() string {
	if !IsTTY {
		return "[ERR]"
	}
	return baseBadge.Background(Pink).Foreground(White).Render("✗")
}

// StatusDryRun marks output of a run that wrote nothing
func StatusDryRun() string {
	if !IsTTY {
		return "[DRY RUN]"
	}
	return baseBadge.Background(Purple).Foreground(White).Render("DRY RUN")
}

// StatusUpdate returns the update-available badge
func StatusUpdate() string {
	if !IsTTY {
		return "[UPD]"
	}
	return baseBadge.Background(Gold).Foreground(Black).Render("UPD")
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECORATIVE ELEMENTS
// ═══════════════════════════════════════════════════════════════════════════════

// Divider returns a horizontal divider
func Divider(width int) string {
	if !IsTTY {
		return strings.Repeat("-", width)
	}
	return lipgloss.NewStyle().
		Foreground(DarkGray).
		Render(strings.Repeat("─", width))
}

// SectionHeader creates a decorated section header
func SectionHeader(title string) string {
	// Plain output for non-TTY environments
	if !IsTTY {
		return fmt.Sprintf("=== %s ===", title)
	}

	// Use terminal width, capped at 80
	width := min(TerminalWidth(), 80)

	titleStyled := lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true).
		Render(title)

	titleLen := lipgloss.Width(title)
	padLeft := max((width-titleLen-6)/2, 1)
	padRight := max(width-titleLen-6-padLeft, 1)

	left := lipgloss.NewStyle().Foreground(DarkGray).Render(strings.Repeat("─", padLeft) + "┤ ")
	right := lipgloss.NewStyle().Foreground(DarkGray).Render(" ├" + strings.Repeat("─", padRight))

	return left + titleStyled + right
}

// ═══════════════════════════════════════════════════════════════════════════════
// TABLES
// ═══════════════════════════════════════════════════════════════════════════════

// TableHeader creates a styled table header
func TableHeader(columns ...string) string {
	var cells []string
	for _, col := range columns {
		cells = append(cells, Render(Highlight, col))
	}
	return strings.Join(cells, "  ")
}

// TableRow creates a styled table row; columns after the first are muted
func TableRow(columns ...string) string {
	var cells []string
	for i, col := range columns {
		if i > 0 {
			col = RenderMuted(col)
		}
		cells = append(cells, col)
	}
	return strings.Join(cells, "  ")
}

// Pad right-pads text to width, ignoring ANSI sequences
func Pad(text string, width int) string {
	if w := lipgloss.Width(text); w < width {
		return text + strings.Repeat(" ", width-w)
	}
	return text
}

// ═══════════════════════════════════════════════════════════════════════════════
// STATUS LINE COMPONENTS
// ═══════════════════════════════════════════════════════════════════════════════

// StatusLine creates a status line with icon and message
func StatusLine(icon, message string, color lipgloss.Color) string {
	if !IsTTY {
		return fmt.Sprintf("  %s %s", icon, message)
	}
	iconStyled := lipgloss.NewStyle().Foreground(color).Render(icon)
	msgStyled := lipgloss.NewStyle().Foreground(color).Render(message)
	return fmt.Sprintf("  %s %s", iconStyled, msgStyled)
}

// SuccessLine creates a success status line
func SuccessLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  OK: %s", message)
	}
	return StatusLine("✓", message, Green)
}

// ErrorLine creates an error status line
func ErrorLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  FAIL: %s", message)
	}
	return StatusLine("✗", message, Pink)
}

// WarningLine creates a warning status line
func WarningLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  WARN: %s", message)
	}
	return StatusLine("!", message, Copper)
}

// InfoLine creates an info status line
func InfoLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  %s", message)
	}
	return StatusLine("→", message, Blue)
}

// Render applies a lipgloss style to text, returning plain text in non-TTY environments.
func Render(style lipgloss.Style, text string) string {
	if !IsTTY {
		return text
	}
	return style.Render(text)
}

// RenderMuted renders text in muted style (TTY-aware)
func RenderMuted(text string) string {
	return Render(Muted, text)
}

// RenderHighlight renders text in highlight style (TTY-aware)
func RenderHighlight(text string) string {
	return Render(Highlight, text)
}

// RenderSuccess renders text in success style (TTY-aware)
func RenderSuccess(text string) string {
	return Render(Success, text)
}

// RenderError renders text in error style (TTY-aware)
func RenderError(text string) string {
	return Render(Error, text)
}

// RenderWarning renders text in warning style (TTY-aware)
func RenderWarning(text string) string {
	return Render(Warning, text)
}

// RenderCode renders a path or command (TTY-aware)
func RenderCode(text string) string {
	return Render(Code, text)
}

// TerminalWidth returns the current terminal width, defaulting to 80 if unknown
func TerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// ═══════════════════════════════════════════════════════════════════════════════
// PAGE TEMPLATES
// ═══════════════════════════════════════════════════════════════════════════════

// PageHeader creates a consistent page header
func PageHeader(title string) string {
	if !IsTTY {
		return fmt.Sprintf("\n  %s\n", title)
	}
	icon := lipgloss.NewStyle().Foreground(Gold).Render("⚙")
	titleStyled := lipgloss.NewStyle().Foreground(Gold).Bold(true).Render(title)
	return fmt.Sprintf("\n  %s %s\n", icon, titleStyled)
}

// PageFooter creates a consistent page footer matching the header width
func PageFooter() string {
	// Plain output for non-TTY environments
	if !IsTTY {
		return "\n"
	}

	width := min(TerminalWidth(), 80)
	padSide := (width - 5) / 2 // 5 = " ✦ " with spaces
	left := strings.Repeat("─", padSide)
	right := strings.Repeat("─", width-padSide-5)
	line := lipgloss.NewStyle().Foreground(DarkGray).Render(left + " ✦ " + right)
	return "\n" + line + "\n"
}
