/* Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

// Package dashboard turns the campaign performance result set into
// the numbers and series shown on the metrics page. Nothing here
// talks to BigQuery, the input is a bq.ResultSet.
package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jarrah-analytics/docusketch-utils/bq"
)

// Column names the dashboard depends on. Any other columns are only
// shown in the raw table.
const (
	ColCampaign       = "campaign"
	ColConversionDate = "conversion_date"
	ColTrials         = "trials"
	ColTotalUpgrades  = "total_upgrades"
	ColUpgradeGNMRR   = "upgrade_GNMRR"
)

// Query returns the one statement the dashboard runs.
func Query(tableSpec string) (string, error) {
	ref, err := bq.ParseTableSpec(tableSpec)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT *\nFROM %s\nORDER BY %s DESC", ref.Standard(), ColConversionDate), nil
}

// Record is one row of the result set.
type Record struct {
	Campaign       string // blank when NULL
	HasCampaign    bool
	ConversionDate time.Time
	Trials         float64
	TotalUpgrades  float64
	UpgradeGNMRR   float64
	Cells          []string // every column, formatted for display
}

// Dataset is the typed version of the query result.
type Dataset struct {
	Columns []string
	Records []*Record
}

// NewDataset converts a result set. It fails if a required column is
// missing or a value cannot be parsed.
func NewDataset(rs *bq.ResultSet) (*Dataset, error) {
	idx := map[string]int{}
	for _, col := range []string{ColCampaign, ColConversionDate, ColTrials, ColTotalUpgrades, ColUpgradeGNMRR} {
		i := rs.Index(col)
		if i < 0 {
			return nil, fmt.Errorf("column %q not in result set", col)
		}
		idx[col] = i
	}

	ds := &Dataset{Columns: make([]string, 0, len(rs.Fields))}
	for _, f := range rs.Fields {
		ds.Columns = append(ds.Columns, f.Name)
	}

	dateType := rs.Fields[idx[ColConversionDate]].Type
	for n, row := range rs.Rows {
		if len(row) != len(rs.Fields) {
			return nil, fmt.Errorf("row %d: %d cells, expected %d", n, len(row), len(rs.Fields))
		}
		rec := &Record{Cells: make([]string, 0, len(row))}
		for _, v := range row {
			rec.Cells = append(rec.Cells, cellString(v))
		}

		if s, ok := row[idx[ColCampaign]].(string); ok {
			rec.Campaign, rec.HasCampaign = s, true
		}

		var err error
		if rec.ConversionDate, err = parseTime(row[idx[ColConversionDate]], dateType); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n, ColConversionDate, err)
		}
		if rec.Trials, err = parseNumber(row[idx[ColTrials]]); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n, ColTrials, err)
		}
		if rec.TotalUpgrades, err = parseNumber(row[idx[ColTotalUpgrades]]); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n, ColTotalUpgrades, err)
		}
		if rec.UpgradeGNMRR, err = parseNumber(row[idx[ColUpgradeGNMRR]]); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n, ColUpgradeGNMRR, err)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// Campaigns returns the distinct non-NULL campaigns, sorted.
func (ds *Dataset) Campaigns() []string {
	seen := map[string]bool{}
	result := []string{}
	for _, r := range ds.Records {
		if r.HasCampaign && !seen[r.Campaign] {
			seen[r.Campaign] = true
			result = append(result, r.Campaign)
		}
	}
	sort.Strings(result)
	return result
}

// Filter keeps records whose campaign is one of campaigns. An empty
// selection keeps everything. The receiver is not modified.
func (ds *Dataset) Filter(campaigns []string) *Dataset {
	if len(campaigns) == 0 {
		return ds
	}
	want := make(map[string]bool, len(campaigns))
	for _, c := range campaigns {
		want[c] = true
	}
	result := &Dataset{Columns: ds.Columns, Records: []*Record{}}
	for _, r := range ds.Records {
		if r.HasCampaign && want[r.Campaign] {
			result.Records = append(result.Records, r)
		}
	}
	return result
}

// Totals are the three headline numbers.
type Totals struct {
	Trials   float64
	Upgrades float64
	MRR      float64
}

func (ds *Dataset) Totals() Totals {
	var t Totals
	for _, r := range ds.Records {
		t.Trials += r.Trials
		t.Upgrades += r.TotalUpgrades
		t.MRR += r.UpgradeGNMRR
	}
	return t
}

func (t Totals) TrialsString() string   { return formatCount(t.Trials) }
func (t Totals) UpgradesString() string { return formatCount(t.Upgrades) }
func (t Totals) MRRString() string      { return formatCurrency(t.MRR) }

// DailyPoint is one point of the trends chart.
type DailyPoint struct {
	Date     time.Time
	Trials   float64
	Upgrades float64
}

// ByDate sums trials and upgrades per conversion date, oldest first.
// Records without a date are left out.
func (ds *Dataset) ByDate() []DailyPoint {
	sums := map[time.Time]*DailyPoint{}
	for _, r := range ds.Records {
		if r.ConversionDate.IsZero() {
			continue
		}
		p, ok := sums[r.ConversionDate]
		if !ok {
			p = &DailyPoint{Date: r.ConversionDate}
			sums[r.ConversionDate] = p
		}
		p.Trials += r.Trials
		p.Upgrades += r.TotalUpgrades
	}
	result := make([]DailyPoint, 0, len(sums))
	for _, p := range sums {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

// CampaignTotal is one bar of the breakdown chart.
type CampaignTotal struct {
	Campaign string
	Upgrades float64
}

// ByCampaign sums upgrades per campaign, sorted by campaign name.
// Records without a campaign are left out, like a pandas groupby.
func (ds *Dataset) ByCampaign() []CampaignTotal {
	sums := map[string]float64{}
	for _, r := range ds.Records {
		if r.HasCampaign {
			sums[r.Campaign] += r.TotalUpgrades
		}
	}
	result := make([]CampaignTotal, 0, len(sums))
	for c, u := range sums {
		result = append(result, CampaignTotal{Campaign: c, Upgrades: u})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Campaign < result[j].Campaign })
	return result
}

func formatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func formatCurrency(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func parseNumber(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil // NULL sums as zero
	case string:
		return strconv.ParseFloat(val, 64)
	case float64:
		return val, nil
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}

// parseTime handles the string encodings the REST API uses: DATE and
// DATETIME as text, TIMESTAMP as (fractional) epoch seconds.
func parseTime(v interface{}, typ string) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
	switch typ {
	case "TIMESTAMP":
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, err
		}
		sec, frac := math.Modf(secs)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case "DATETIME":
		return time.Parse("2006-01-02T15:04:05", trimFraction(s))
	default:
		return time.Parse("2006-01-02", s)
	}
}

func trimFraction(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}
