package library

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	closeMatchLimit  = 3
	closeMatchCutoff = 0.6
)

type scoredTitle struct {
	title string
	score float64
}

// closeMatches returns up to closeMatchLimit candidates whose Ratcliff/Obershelp
// similarity to word is at least closeMatchCutoff, best first. Comparison is
// case-insensitive; ties keep candidate order.
func closeMatches(word string, candidates []string) []string {
	target := runes(strings.ToLower(word))
	m := difflib.NewMatcher(nil, target)

	var scored []scoredTitle
	for _, c := range candidates {
		m.SetSeq1(runes(strings.ToLower(c)))
		if m.RealQuickRatio() < closeMatchCutoff || m.QuickRatio() < closeMatchCutoff {
			continue
		}
		if r := m.Ratio(); r >= closeMatchCutoff {
			scored = append(scored, scoredTitle{title: c, score: r})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > closeMatchLimit {
		scored = scored[:closeMatchLimit]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.title
	}
	return out
}

// runes splits s into one-element strings so difflib compares characters, not lines.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
