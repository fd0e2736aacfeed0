package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/coin/ledger"
	"github.com/robinvdvleuten/coin/loader"
)

// loadLedger loads the snapshot, rendering load errors to stderr.
func loadLedger(ctx *kong.Context, runCtx context.Context, f *LedgerFile) (*ledger.Ledger, error) {
	l, err := f.Load(runCtx, loader.New())
	if err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer().Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "load error")
		return nil, NewCommandError(1)
	}
	return l, nil
}

// hidden reports whether a or one of its ancestors is hidden by the view.
func hidden(v ledger.View, a *ledger.Account) bool {
	for _, acc := range a.WithAllParents() {
		if v.Hides(acc) {
			return true
		}
	}
	return false
}

// liveRoots returns the root accounts the view does not hide.
func liveRoots(l *ledger.Ledger, v ledger.View) []*ledger.Account {
	var roots []*ledger.Account
	for _, root := range l.Roots() {
		if !v.Hides(root) {
			roots = append(roots, root)
		}
	}
	return roots
}

// subName names a descendant relative to account, or the account itself by
// its full name.
func subName(account, descendant *ledger.Account) string {
	if descendant == account {
		return account.FullName
	}
	return strings.TrimPrefix(account.RelativeName(descendant), ":")
}

func commandName(name string, f *LedgerFile) string {
	return fmt.Sprintf("%s %s", name, filepath.Base(f.Filename))
}
