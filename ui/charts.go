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

package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jarrah-analytics/docusketch-utils/dashboard"
)

// Charts are plain inline SVG, the geometry is worked out here so
// that the templates only fill in attributes.

const (
	chartWidth  = 800
	chartHeight = 300
	chartPad    = 40
)

type axisLabel struct {
	X, Y float64
	Text string
}

type lineChart struct {
	Width, Height int
	Trials        string // polyline points
	Upgrades      string
	Labels        []axisLabel
	Max           string
}

func newLineChart(pts []dashboard.DailyPoint) *lineChart {
	c := &lineChart{Width: chartWidth, Height: chartHeight}
	if len(pts) == 0 {
		return c
	}

	max := 0.0
	for _, p := range pts {
		if p.Trials > max {
			max = p.Trials
		}
		if p.Upgrades > max {
			max = p.Upgrades
		}
	}
	if max == 0 {
		max = 1
	}
	c.Max = humanize.Commaf(max)

	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	x := func(i int) float64 {
		if len(pts) == 1 {
			return chartPad + plotW/2
		}
		return chartPad + plotW*float64(i)/float64(len(pts)-1)
	}
	y := func(v float64) float64 { return chartPad + plotH*(1-v/max) }

	var trials, upgrades []string
	step := len(pts)/8 + 1
	for i, p := range pts {
		trials = append(trials, fmt.Sprintf("%.1f,%.1f", x(i), y(p.Trials)))
		upgrades = append(upgrades, fmt.Sprintf("%.1f,%.1f", x(i), y(p.Upgrades)))
		if i%step == 0 || i == len(pts)-1 {
			c.Labels = append(c.Labels, axisLabel{X: x(i), Y: chartHeight - chartPad/3, Text: p.Date.Format("2006-01-02")})
		}
	}
	c.Trials = strings.Join(trials, " ")
	c.Upgrades = strings.Join(upgrades, " ")
	return c
}

type bar struct {
	X, Y, W, H float64
	Label      string
	Value      string
}

type barChart struct {
	Width, Height int
	Bars          []bar
}

func newBarChart(totals []dashboard.CampaignTotal) *barChart {
	c := &barChart{Width: chartWidth, Height: chartHeight}
	if len(totals) == 0 {
		return c
	}

	max := 0.0
	for _, t := range totals {
		if t.Upgrades > max {
			max = t.Upgrades
		}
	}
	if max == 0 {
		max = 1
	}

	plotW := float64(chartWidth - 2*chartPad)
	plotH := float64(chartHeight - 2*chartPad)
	slot := plotW / float64(len(totals))
	for i, t := range totals {
		h := plotH * t.Upgrades / max
		c.Bars = append(c.Bars, bar{
			X:     chartPad + slot*float64(i) + slot*0.1,
			Y:     chartPad + plotH - h,
			W:     slot * 0.8,
			H:     h,
			Label: t.Campaign,
			Value: humanize.Commaf(t.Upgrades),
		})
	}
	return c
}
