package finder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fpfind/internal/rnn"
)

var (
	bannerHead  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	bannerLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bannerValue = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	bannerDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func printBanner(weights *rnn.WeightSet, opts Options) {
	rule := bannerDim.Render(strings.Repeat("-", 41))
	fmt.Println(rule)
	fmt.Printf("%s: %s with %s recurrent units\n",
		bannerLabel.Render("architecture"),
		bannerHead.Render(weights.Architecture().String()),
		bannerValue.Render(fmt.Sprintf("%d", weights.NHidden())))
	fmt.Printf("%s: %s", bannerLabel.Render("algorithm"), bannerValue.Render(opts.Algorithm.String()))
	if opts.Algorithm == AlgoAdam {
		fmt.Printf(" (%s)", opts.Adam.Mode)
	}
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("%s:\n", bannerLabel.Render("hyperparameters"))
	fmt.Printf("  q threshold      %g\n", opts.QThreshold)
	fmt.Printf("  unique tolerance %g\n", opts.UniqueTol)
	fmt.Println(rule)
}

func printPartition(total, good, bad int) {
	fmt.Printf("%s: %d runs, %s below threshold, %s discarded\n",
		bannerLabel.Render("minimization"),
		total,
		bannerValue.Render(fmt.Sprintf("%d", good)),
		bannerDim.Render(fmt.Sprintf("%d", bad)))
}
