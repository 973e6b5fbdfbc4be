// Package summary renders the operator report printed by the summary command
package summary

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

const timeLayout = "2006-01-02 15:04:05"

// Group aggregates the wallets of one status
type Group struct {
	Status  models.Status
	Count   int
	Due     int
	Nearest time.Time
	Latest  time.Time
}

// Report is a snapshot of the farm
type Report struct {
	GeneratedAt time.Time
	Total       int
	Groups      []Group
	Done        int
	RPCs        map[wallet.NetworkType]string
	GasNetwork  string
	GasCeiling  float64
}

// Build groups wallets by status. Timers of zero count as due and do not
// contribute to the nearest and latest times.
func Build(wallets []*models.Wallet, s *settings.Settings, now time.Time) Report {
	r := Report{
		GeneratedAt: now,
		Total:       len(wallets),
		RPCs:        make(map[wallet.NetworkType]string),
		GasNetwork:  s.GasPriceNetwork,
		GasCeiling:  s.MaximumGasPrice,
	}

	groups := make(map[models.Status]*Group, len(models.Statuses))
	for _, st := range models.Statuses {
		groups[st] = &Group{Status: st}
	}

	for _, w := range wallets {
		g, ok := groups[w.Status]
		if !ok {
			g = &Group{Status: w.Status}
			groups[w.Status] = g
		}
		g.Count++
		if w.Done() {
			r.Done++
		}

		next := w.NextActionTime()
		if next <= now.Unix() {
			g.Due++
		}
		if next == 0 {
			continue
		}
		at := time.Unix(next, 0)
		if g.Nearest.IsZero() || at.Before(g.Nearest) {
			g.Nearest = at
		}
		if at.After(g.Latest) {
			g.Latest = at
		}
	}

	for _, st := range models.Statuses {
		r.Groups = append(r.Groups, *groups[st])
		delete(groups, st)
	}
	var extra []models.Status
	for st := range groups {
		extra = append(extra, st)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, st := range extra {
		r.Groups = append(r.Groups, *groups[st])
	}

	for _, chain := range s.BalanceChains() {
		r.RPCs[chain] = s.RPC(chain)
	}
	return r
}

// Render writes the report, without color when plain is set
func Render(out io.Writer, r Report, plain bool) {
	paint := func(c *color.Color, format string, args ...interface{}) string {
		if plain {
			return fmt.Sprintf(format, args...)
		}
		return c.Sprintf(format, args...)
	}
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)
	value := color.New(color.FgGreen)

	fmt.Fprintln(out, paint(title, "Wallets: %d (%d finished)", r.Total, r.Done))
	for _, g := range r.Groups {
		if g.Count == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s %s, due %d", paint(label, "%-12s", g.Status), paint(value, "%d", g.Count), g.Due)
		if !g.Nearest.IsZero() {
			fmt.Fprintf(out, ", nearest %s, latest %s",
				g.Nearest.Local().Format(timeLayout), g.Latest.Local().Format(timeLayout))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, paint(title, "RPCs"))
	chains := make([]string, 0, len(r.RPCs))
	for chain := range r.RPCs {
		chains = append(chains, string(chain))
	}
	sort.Strings(chains)
	for _, chain := range chains {
		fmt.Fprintf(out, "  %s %s\n", paint(label, "%-12s", chain), r.RPCs[wallet.NetworkType(chain)])
	}

	fmt.Fprintf(out, "%s %s on %s\n", paint(title, "Gas ceiling"), paint(value, "%v gwei", r.GasCeiling), r.GasNetwork)
}
