/* Copyright 2019 Vox Media, Inc.
   Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

package bq

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/bigquery/v2"
)

// Field is a column name and its BigQuery type (STRING, INTEGER,
// FLOAT, DATE, TIMESTAMP, ...).
type Field struct {
	Name string
	Type string
}

// ResultSet is the complete output of a query. NB: The REST API
// returns all scalar values as strings (or nil for NULL), repeated
// fields as []interface{} and records as map[string]interface{}.
type ResultSet struct {
	Fields []Field
	Rows   [][]interface{}
}

// Index returns the position of the named column or -1.
func (rs *ResultSet) Index(name string) int {
	for i, f := range rs.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (rs *ResultSet) setSchema(schema *bigquery.TableSchema) {
	if schema == nil || rs.Fields != nil {
		return
	}
	rs.Fields = make([]Field, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		rs.Fields = append(rs.Fields, Field{Name: f.Name, Type: f.Type})
	}
}

func (rs *ResultSet) appendRows(rows []*bigquery.TableRow) {
	for _, row := range rows {
		rs.Rows = append(rs.Rows, rowToInterfaceSlice(row))
	}
}

func rowToInterfaceSlice(row *bigquery.TableRow) []interface{} {
	result := make([]interface{}, 0, len(row.F))
	for _, cell := range row.F {
		result = append(result, cell.V)
	}
	return result
}

// fetchResults polls the job until it is done and then reads every
// remaining page into rs.
func (b *BigQuery) fetchResults(ctx context.Context, ref *bigquery.JobReference, pageToken string, rs *ResultSet) error {
	complete := pageToken != "" // we only get a page token for finished jobs
	for polls := 0; !complete || pageToken != ""; polls++ {
		call := b.svc.Jobs.GetQueryResults(b.projectId, ref.JobId).
			TimeoutMs(b.wait.Milliseconds()).
			Context(ctx)
		if ref.Location != "" {
			call = call.Location(ref.Location)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return fmt.Errorf("job %s: %w", ref.JobId, extractSubmitError(err))
		}
		if !res.JobComplete {
			if polls > 0 && polls%6 == 0 {
				log.Printf("BigQuery job %s still running after %d polls", ref.JobId, polls)
			}
			continue
		}

		complete = true
		rs.setSchema(res.Schema)
		rs.appendRows(res.Rows)
		pageToken = res.PageToken
	}
	return nil
}
