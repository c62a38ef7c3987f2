package feature

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// CountryField is the ISO3 country-code attribute on port and trade records.
const CountryField = "ISO3"

// SortByDateDesc stable-sorts rows in place, most recent "date" first, and
// returns the slice. Rows are assumed to be date-converted already.
func SortByDateDesc(rows []*Row) []*Row {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, _ := rows[i].Time("date")
		tj, _ := rows[j].Time("date")
		return ti.After(tj)
	})
	return rows
}

// Countries collects the distinct non-empty ISO3 codes across the features,
// upper-cased, in ascending order. The result drives the per-country
// sub-pipeline fan-out.
func Countries(features []*Feature) []string {
	seen := make(map[string]struct{})
	for _, f := range features {
		attrs := f.Attrs()
		if attrs == nil {
			continue
		}
		iso3 := strings.ToUpper(attrs.String(CountryField))
		if iso3 == "" {
			continue
		}
		seen[iso3] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for iso3 := range seen {
		out = append(out, iso3)
	}
	sort.Strings(out)
	return out
}

// YearGroup pairs a calendar year with its rows.
type YearGroup struct {
	Year int
	Rows []*Row
}

// GroupByYear partitions rows by their explicit "year" attribute, most
// recent year first. Rows without a usable year are dropped from the output.
func GroupByYear(rows []*Row) []YearGroup {
	byYear := make(map[int][]*Row)
	for _, row := range rows {
		year, ok := rowYear(row)
		if !ok {
			continue
		}
		byYear[year] = append(byYear[year], row)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	groups := make([]YearGroup, 0, len(years))
	for _, y := range years {
		groups = append(groups, YearGroup{Year: y, Rows: byYear[y]})
	}
	return groups
}

func rowYear(row *Row) (int, bool) {
	switch v := row.Value("year").(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// DateRange computes the inclusive min/max date span across the rows.
// Each row is classified by shape independently: rows carrying both
// "fromdate" and "todate" keys are interval rows contributing fromdate to
// the min candidates and todate to the max candidates (null values
// contribute nothing); other rows contribute their "date" to both sides.
// ok is false when no row contributed a date at all.
func DateRange(rows []*Row) (minDate, maxDate time.Time, ok bool) {
	var haveMin, haveMax bool

	for _, row := range rows {
		if row.Has("fromdate") && row.Has("todate") {
			if t, tok := row.Time("fromdate"); tok {
				if !haveMin || t.Before(minDate) {
					minDate = t
				}
				haveMin = true
			}
			if t, tok := row.Time("todate"); tok {
				if !haveMax || t.After(maxDate) {
					maxDate = t
				}
				haveMax = true
			}
			continue
		}

		if t, tok := row.Time("date"); tok {
			if !haveMin || t.Before(minDate) {
				minDate = t
			}
			haveMin = true
			if !haveMax || t.After(maxDate) {
				maxDate = t
			}
			haveMax = true
		}
	}

	if !haveMin || !haveMax {
		return time.Time{}, time.Time{}, false
	}
	return minDate, maxDate, true
}
