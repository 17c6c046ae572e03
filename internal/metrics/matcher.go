package metrics

import (
	"strings"

	"github.com/babybento/aeo-command/internal/catalog"
	"github.com/babybento/aeo-command/internal/gsc"
)

// brandTerms are the substrings that mark a query as branded. Kept in sync
// with the storefront's known brand spellings and close variants.
var brandTerms = []string{
	"baby bento",
	"babybento",
	"baby-bento",
	"bb bento",
	"bento baby",
	"baby bento box",
}

// tokenize splits a node name into lower-cased whitespace tokens.
func tokenize(name string) []string {
	return strings.Fields(strings.ToLower(name))
}

// MatchNodeQueries returns the rows whose query text contains any token of
// the node's name as a substring. Token containment is deliberately loose:
// no word boundaries and no minimum token length, so a token like "bento"
// matches anywhere it appears. Input order is preserved and each row
// appears at most once per node, but the same row may legitimately match
// several nodes — nodes are not a partition.
func MatchNodeQueries(rows []gsc.PerformanceRow, node catalog.Node) []gsc.PerformanceRow {
	tokens := tokenize(node.Name)
	if len(tokens) == 0 {
		return nil
	}

	var matched []gsc.PerformanceRow
	for _, row := range rows {
		query := strings.ToLower(row.Query)
		for _, t := range tokens {
			if strings.Contains(query, t) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched
}

// IsBranded reports whether the query contains any brand term as a
// substring. Classification is independent of node matching.
func IsBranded(query string) bool {
	q := strings.ToLower(query)
	for _, term := range brandTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// CurrentMatch selects the node's representative current-period row: the
// matched row with the most clicks, earliest input position winning ties.
func CurrentMatch(matched []gsc.PerformanceRow) (gsc.PerformanceRow, bool) {
	if len(matched) == 0 {
		return gsc.PerformanceRow{}, false
	}
	best := matched[0]
	for _, row := range matched[1:] {
		if row.Clicks > best.Clicks {
			best = row
		}
	}
	return best, true
}

// PreviousMatch finds the row in the other period that best corresponds to
// the node. A candidate qualifies when at least half of the node's name
// tokens appear as substrings in its query text. Among qualifying rows the
// highest token-overlap ratio wins, with earliest input position breaking
// ties, so the result does not depend on feed ordering quirks.
func PreviousMatch(rows []gsc.PerformanceRow, node catalog.Node) (gsc.PerformanceRow, bool) {
	tokens := tokenize(node.Name)
	if len(tokens) == 0 {
		return gsc.PerformanceRow{}, false
	}

	var (
		best      gsc.PerformanceRow
		bestRatio float64
		found     bool
	)
	for _, row := range rows {
		query := strings.ToLower(row.Query)
		matches := 0
		for _, t := range tokens {
			if strings.Contains(query, t) {
				matches++
			}
		}
		ratio := float64(matches) / float64(len(tokens))
		if ratio < 0.5 {
			continue
		}
		if !found || ratio > bestRatio {
			best = row
			bestRatio = ratio
			found = true
		}
	}
	return best, found
}
