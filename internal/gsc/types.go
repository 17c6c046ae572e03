package gsc

import (
	"strings"
	"time"
)

// PerformanceRow is one validated per-query search performance row.
// Position is the mean ranking position for the query; lower is better.
type PerformanceRow struct {
	Query       string  `json:"query"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// Window is an inclusive ISO date range for a performance query.
type Window struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Windows returns the current and previous reporting windows relative to
// now: the trailing windowDays ending lagDays ago, and the windowDays
// immediately before that. The lag accounts for Search Console's data
// processing delay.
func Windows(now time.Time, windowDays, lagDays int) (current, previous Window) {
	end := now.AddDate(0, 0, -lagDays)
	start := end.AddDate(0, 0, -(windowDays - 1))
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(windowDays - 1))

	const iso = "2006-01-02"
	current = Window{StartDate: start.Format(iso), EndDate: end.Format(iso)}
	previous = Window{StartDate: prevStart.Format(iso), EndDate: prevEnd.Format(iso)}
	return current, previous
}

// queryRequest is the Search Console searchAnalytics query body.
type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

// apiRow is the raw row shape returned by the Search Console API.
// Keys carries the requested dimensions; with dimensions=["query"] the
// query text is keys[0].
type apiRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

type queryResponse struct {
	Rows []apiRow `json:"rows"`
}

// normalizeRows converts raw API rows into validated PerformanceRows.
// Rows with no query text or a non-positive position are dropped; negative
// click/impression counts are clamped to zero. Malformed input must never
// reach the matcher.
func normalizeRows(raw []apiRow) []PerformanceRow {
	rows := make([]PerformanceRow, 0, len(raw))
	for _, r := range raw {
		if len(r.Keys) == 0 {
			continue
		}
		query := strings.TrimSpace(r.Keys[0])
		if query == "" {
			continue
		}
		if r.Position <= 0 {
			continue
		}
		clicks := int64(r.Clicks)
		if clicks < 0 {
			clicks = 0
		}
		impressions := int64(r.Impressions)
		if impressions < 0 {
			impressions = 0
		}
		rows = append(rows, PerformanceRow{
			Query:       query,
			Clicks:      clicks,
			Impressions: impressions,
			CTR:         r.CTR,
			Position:    r.Position,
		})
	}
	return rows
}
