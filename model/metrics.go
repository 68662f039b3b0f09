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

package model

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/bq"
	"github.com/jarrah-analytics/docusketch-utils/dashboard"
)

var ErrDashboardDisabled = errors.New("dashboard not configured")

// Metrics is everything the dashboard page shows, computed from one
// (possibly cached) result set and the campaign selection.
type Metrics struct {
	Campaigns []string // all options for the filter
	Selected  []string
	Data      *dashboard.Dataset // filtered
	Totals    dashboard.Totals
	Trends    []dashboard.DailyPoint
	Breakdown []dashboard.CampaignTotal
	FetchedAt time.Time
}

// IsSelected is a template helper.
func (mt *Metrics) IsSelected(campaign string) bool {
	for _, s := range mt.Selected {
		if s == campaign {
			return true
		}
	}
	return false
}

// Dashboard fetches the campaign performance data (at most once per
// cache window) and derives the views for the selected campaigns. An
// empty selection means all campaigns.
func (m *Model) Dashboard(ctx context.Context, campaigns []string) (*Metrics, error) {
	if m.wh == nil {
		return nil, ErrDashboardDisabled
	}
	sql, err := dashboard.Query(m.table)
	if err != nil {
		return nil, err
	}

	rs, fetchedAt, err := m.cache.Get(ctx, sql, func(ctx context.Context) (*bq.ResultSet, error) {
		return m.wh.Query(ctx, sql)
	})
	if err != nil {
		return nil, err
	}

	ds, err := dashboard.NewDataset(rs)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	filtered := ds.Filter(campaigns)
	return &Metrics{
		Campaigns: ds.Campaigns(),
		Selected:  campaigns,
		Data:      filtered,
		Totals:    filtered.Totals(),
		Trends:    filtered.ByDate(),
		Breakdown: filtered.ByCampaign(),
		FetchedAt: fetchedAt,
	}, nil
}

// RefreshDashboard discards the cached result so that the next
// Dashboard call queries the warehouse.
func (m *Model) RefreshDashboard() error {
	if m.wh == nil {
		return ErrDashboardDisabled
	}
	m.cache.Forget()
	log.Printf("Dashboard cache cleared.")
	return nil
}
