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

package dashboard

import (
	"testing"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/bq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fields = []bq.Field{
	{Name: "campaign", Type: "STRING"},
	{Name: "conversion_date", Type: "DATE"},
	{Name: "trials", Type: "INTEGER"},
	{Name: "total_upgrades", Type: "INTEGER"},
	{Name: "upgrade_GNMRR", Type: "FLOAT"},
	{Name: "channel", Type: "STRING"},
}

func sample(t *testing.T) *Dataset {
	t.Helper()
	rs := &bq.ResultSet{
		Fields: fields,
		Rows: [][]interface{}{
			{"spring", "2024-03-02", "10", "2", "100.0", "email"},
			{"summer", "2024-03-01", "5", "1", "50.0", nil},
		},
	}
	ds, err := NewDataset(rs)
	require.NoError(t, err)
	return ds
}

func TestTotals(t *testing.T) {
	tot := sample(t).Totals()

	assert.Equal(t, "15", tot.TrialsString())
	assert.Equal(t, "3", tot.UpgradesString())
	assert.Equal(t, "$150.00", tot.MRRString())
}

func TestTotals_Formatting(t *testing.T) {
	tot := Totals{Trials: 1234567, Upgrades: 0, MRR: 1234.5}

	assert.Equal(t, "1,234,567", tot.TrialsString())
	assert.Equal(t, "0", tot.UpgradesString())
	assert.Equal(t, "$1,234.50", tot.MRRString())
	assert.Equal(t, "-$12.25", Totals{MRR: -12.25}.MRRString())
}

func TestFilter_NoSelectionIsIdentity(t *testing.T) {
	ds := sample(t)
	assert.Same(t, ds, ds.Filter(nil))
	assert.Same(t, ds, ds.Filter([]string{}))
}

func TestFilter_Selection(t *testing.T) {
	ds := sample(t)

	f := ds.Filter([]string{"summer"})

	require.Len(t, f.Records, 1)
	assert.Equal(t, "summer", f.Records[0].Campaign)
	assert.Equal(t, "5", f.Totals().TrialsString())
	assert.Len(t, ds.Records, 2, "receiver untouched")
}

func TestFilter_NoMatches(t *testing.T) {
	f := sample(t).Filter([]string{"winter"})

	assert.Empty(t, f.Records)
	assert.Empty(t, f.ByDate())
	assert.Empty(t, f.ByCampaign())
	assert.Equal(t, "$0.00", f.Totals().MRRString())
	assert.Equal(t, fields[0].Name, f.Columns[0])
}

func TestByDate(t *testing.T) {
	rs := &bq.ResultSet{
		Fields: fields,
		Rows: [][]interface{}{
			{"a", "2024-03-02", "1", "1", "1", nil},
			{"b", "2024-03-02", "2", "0", "1", nil},
			{"a", "2024-03-01", "4", "3", "1", nil},
		},
	}
	ds, err := NewDataset(rs)
	require.NoError(t, err)

	pts := ds.ByDate()

	require.Len(t, pts, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, 4.0, pts[0].Trials)
	assert.Equal(t, 3.0, pts[1].Trials)
	assert.Equal(t, 1.0, pts[1].Upgrades)
}

func TestByDate_SkipsNullDates(t *testing.T) {
	rs := &bq.ResultSet{
		Fields: fields,
		Rows: [][]interface{}{
			{"a", nil, "3", "1", "1", nil},
			{"a", "2024-01-01", "2", "1", "1", nil},
		},
	}
	ds, err := NewDataset(rs)
	require.NoError(t, err)

	pts := ds.ByDate()

	require.Len(t, pts, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, 2.0, pts[0].Trials)
	assert.Equal(t, "5", ds.Totals().TrialsString())
}

func TestByCampaignAndCampaigns(t *testing.T) {
	rs := &bq.ResultSet{
		Fields: fields,
		Rows: [][]interface{}{
			{"b", "2024-03-02", "1", "1", "1", nil},
			{nil, "2024-03-02", "2", "7", "1", nil},
			{"a", "2024-03-01", "4", "3", "1", nil},
			{"b", "2024-03-01", "4", "2", "1", nil},
		},
	}
	ds, err := NewDataset(rs)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ds.Campaigns())
	assert.Equal(t, []CampaignTotal{{"a", 3}, {"b", 3}}, ds.ByCampaign())
	// NULL campaigns still count in the totals.
	assert.Equal(t, "13", ds.Totals().UpgradesString())
}

func TestNewDataset_Cells(t *testing.T) {
	ds := sample(t)

	assert.Equal(t, []string{"campaign", "conversion_date", "trials", "total_upgrades", "upgrade_GNMRR", "channel"}, ds.Columns)
	assert.Equal(t, []string{"summer", "2024-03-01", "5", "1", "50.0", ""}, ds.Records[1].Cells)
}

func TestNewDataset_Timestamp(t *testing.T) {
	f := append([]bq.Field{}, fields...)
	f[1].Type = "TIMESTAMP"
	rs := &bq.ResultSet{Fields: f, Rows: [][]interface{}{{"a", "1.7095392E9", "1", "1", "1", nil}}}

	ds, err := NewDataset(rs)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), ds.Records[0].ConversionDate)
}

func TestNewDataset_Errors(t *testing.T) {
	_, err := NewDataset(&bq.ResultSet{Fields: fields[1:]})
	assert.ErrorContains(t, err, `column "campaign"`)

	_, err = NewDataset(&bq.ResultSet{Fields: fields, Rows: [][]interface{}{{"a", "2024-03-01", "ten", "1", "1", nil}}})
	assert.ErrorContains(t, err, "trials")

	_, err = NewDataset(&bq.ResultSet{Fields: fields, Rows: [][]interface{}{{"a", "03/01/2024", "1", "1", "1", nil}}})
	assert.ErrorContains(t, err, "conversion_date")
}

func TestQuery(t *testing.T) {
	sql, err := Query("`jarrah-freshbooks.marketing_performance.campaign_performance__in_period`")
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM `jarrah-freshbooks.marketing_performance.campaign_performance__in_period`\nORDER BY conversion_date DESC", sql)

	_, err = Query("x; DROP")
	assert.Error(t, err)
}
