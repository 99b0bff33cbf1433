// Package notify renders cycle results to a terminal.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify prints the cycle's decisions in the configured mode.
func (c *Console) Notify(_ context.Context, decisions []domain.Decision, stats domain.LedgerStats) error {
	if len(decisions) == 0 {
		fmt.Fprintf(c.out, "[%s] no markets scanned\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(decisions, stats)
	} else {
		c.printCompact(decisions, stats)
	}
	return nil
}

// printCompact prints the essentials in one line.
func (c *Console) printCompact(decisions []domain.Decision, stats domain.LedgerStats) {
	now := time.Now().Format("15:04:05")
	signals, filled := tally(decisions)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → signals:%d fills:%d cash:$%.2f pnl:$%+.2f",
		now, len(decisions), signals, filled, stats.Cash, stats.RealizedPnL)

	shown := 0
	for _, d := range decisions {
		if d.Fill == nil || shown >= 4 {
			continue
		}
		f := d.Fill
		fmt.Fprintf(&sb, " | %s %s %d@%.3f+%.3f $%+.2f",
			shortID(f.MarketID), f.Strategy, f.Size, f.YesPrice, f.NoPrice, f.CashDelta)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull prints one row per actionable market plus the ledger summary.
func (c *Console) printFull(decisions []domain.Decision, stats domain.LedgerStats) {
	now := time.Now().Format("15:04:05")
	signals, filled := tally(decisions)

	fmt.Fprintf(c.out, "\n[%s] %d markets — signals:%d fills:%d\n",
		now, len(decisions), signals, filled)

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Sum", "Dev", "Dir", "Conf", "Outcome", "Strategy", "Sets", "Net$")

	rows := 0
	for _, d := range decisions {
		if d.Opportunity == nil {
			continue
		}
		opp := d.Opportunity

		strategy, sets, net := "-", "-", "-"
		if d.Plan != nil {
			strategy = d.Plan.Strategy.String()
			sets = fmt.Sprintf("%d", d.Plan.Size)
			net = fmt.Sprintf("%+.4f", d.Plan.NetExpectedProfit)
		}

		table.Append(
			shortID(opp.MarketID),
			fmt.Sprintf("%.4f", opp.PriceSum),
			fmt.Sprintf("%.4f", opp.Deviation),
			opp.Direction.String(),
			fmt.Sprintf("%.2f", opp.Confidence),
			d.Outcome.String(),
			strategy,
			sets,
			net,
		)
		rows++
	}

	if rows > 0 {
		table.Render()
	}

	c.PrintReport(stats)
}

// PrintReport prints the ledger summary.
func (c *Console) PrintReport(stats domain.LedgerStats) {
	fmt.Fprintf(c.out, "\n=== LEDGER ===\n")
	fmt.Fprintf(c.out, "  Capital:    $%.2f → $%.2f (%+.2f%%)\n",
		stats.StartingCapital, stats.Cash+stats.UnrealizedPnL, stats.ReturnPct)
	fmt.Fprintf(c.out, "  Cash:       $%.2f\n", stats.Cash)
	fmt.Fprintf(c.out, "  Realized:   $%+.2f\n", stats.RealizedPnL)
	fmt.Fprintf(c.out, "  Unrealized: $%+.2f (%d open markets)\n", stats.UnrealizedPnL, stats.OpenMarkets)
	fmt.Fprintf(c.out, "  Fills:      %d", stats.TotalFills)
	if stats.Wins+stats.Losses > 0 {
		fmt.Fprintf(c.out, " — settled %dW/%dL (%.0f%% win rate)", stats.Wins, stats.Losses, stats.WinRate)
	}
	fmt.Fprintln(c.out)
}

// tally counts decisions that produced a signal and those that filled.
func tally(decisions []domain.Decision) (signals, filled int) {
	for _, d := range decisions {
		if d.Opportunity != nil {
			signals++
		}
		if d.Outcome == domain.OutcomeFilled {
			filled++
		}
	}
	return signals, filled
}

// shortID shortens hex condition IDs for display.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:10] + ".."
}
