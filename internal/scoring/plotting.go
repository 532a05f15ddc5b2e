package scoring

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const plotBarWidth = 40

// PlotMinerScoresTerminal writes a bar chart of a uid-indexed score vector,
// best uid first, with each uid's share of the total.
func PlotMinerScoresTerminal(w io.Writer, scores []float64, title string) {
	if len(scores) == 0 {
		fmt.Fprintf(w, "\n%s: no scores\n", title)
		return
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	shares := sharesOf(scores)
	top := scores[order[0]]

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintf(w, "%5s  %-8s  %7s  %s\n", "uid", "score", "share", "")
	for _, uid := range order {
		width := 0
		if top > 0 && scores[uid] > 0 {
			width = int(scores[uid] / top * plotBarWidth)
		}
		bar := strings.Repeat("█", width)
		if width == 0 {
			bar = "▏"
		}
		fmt.Fprintf(w, "%5d  %.6f  %6.2f%%  %s\n", uid, scores[uid], shares[uid]*100, bar)
	}
	fmt.Fprintf(w, "\n%d uids, total %.6f\n", len(scores), floats.Sum(scores))
}

// sharesOf divides each non-negative score by the positive total. Negative
// scores get no share.
func sharesOf(scores []float64) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s > 0 {
			out[i] = s
		}
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}
