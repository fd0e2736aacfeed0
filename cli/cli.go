// Package cli implements the coin command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/loader"
	"github.com/robinvdvleuten/coin/output"
	"github.com/robinvdvleuten/coin/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// interactive reports whether the user can be prompted.
var interactive = isTerminal

// terminalWidth returns the width of stdout, or fallback when it is not a terminal.
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// pickAccount lets the user choose among accounts interactively.
func pickAccount(title string, accounts []*ledger.Account) (*ledger.Account, error) {
	options := make([]huh.Option[*ledger.Account], len(accounts))
	for i, a := range accounts {
		options[i] = huh.NewOption(a.FullName, a)
	}

	var picked *ledger.Account
	form := huh.NewSelect[*ledger.Account]().
		Title(title).
		Options(options...).
		Value(&picked)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	return picked, nil
}

// resolveAccount finds the account named by pattern. An exact full name wins,
// otherwise the pattern must match exactly one account case-insensitively.
// Without a pattern, or with an ambiguous one, the user is asked to pick when
// stdin is a terminal.
func resolveAccount(l *ledger.Ledger, pattern string) (*ledger.Account, error) {
	if a, ok := l.Account(pattern); ok {
		return a, nil
	}

	candidates := l.Accounts()
	if pattern != "" {
		candidates = l.MatchAccounts(pattern)
	}
	switch {
	case len(candidates) == 1:
		return candidates[0], nil
	case len(candidates) == 0:
		return nil, &ledger.UnknownAccountError{Name: pattern}
	case !interactive():
		if pattern == "" {
			return nil, fmt.Errorf("an account is required")
		}
		return nil, fmt.Errorf("%q matches %d accounts", pattern, len(candidates))
	}
	return pickAccount("Select an account", candidates)
}

// LedgerFile accepts either a snapshot file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read by loader).
type LedgerFile struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *LedgerFile) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		f.Filename = "<stdin>"
		f.Contents = contents
		return nil
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

// AbsoluteFilename returns the absolute path, or "<stdin>" for stdin.
func (f *LedgerFile) AbsoluteFilename() string {
	if f.Filename == "<stdin>" {
		return f.Filename
	}
	absPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return f.Filename
	}
	return absPath
}

// Load builds the ledger using LoadBytes for stdin or Load for files.
func (f *LedgerFile) Load(ctx context.Context, ldr *loader.Loader) (*ledger.Ledger, error) {
	if f.Filename == "" {
		return nil, fmt.Errorf("a ledger file is required")
	}
	if f.Filename == "<stdin>" {
		return ldr.LoadBytes(ctx, f.Filename, f.Contents)
	}
	return ldr.Load(ctx, f.AbsoluteFilename())
}

// startTelemetry attaches a timing collector to the returned context when
// telemetry is enabled. The returned function ends the command timer and
// prints the report once; it is safe to call more than once.
func startTelemetry(ctx *kong.Context, globals *Globals, name string) (context.Context, func()) {
	runCtx := context.Background()
	if !globals.Telemetry {
		return runCtx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	runCtx = telemetry.WithCollector(runCtx, collector)
	timer := collector.Start(name)
	runCtx = telemetry.WithTimer(runCtx, timer)

	var once sync.Once
	return runCtx, func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr, output.NewStyles(ctx.Stderr))
		})
	}
}
