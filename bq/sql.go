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
	"fmt"
	"strings"
)

// TableRef is a (possibly partially) qualified table name.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// Standard returns the reference quoted for standard SQL,
// e.g. `proj.dataset.table`.
func (t TableRef) Standard() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Project, t.Dataset, t.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return "`" + strings.Join(parts, ".") + "`"
}

// Parse a qualified BigQuery table name, such as
// "[orgname:project.table]" (Legacy), `orgname.project.table`
// (Standard) or an unquoted project.dataset.table. The table part is
// required, and only standard SQL is supported downstream, so legacy
// specs are converted.
func ParseTableSpec(spec string) (TableRef, error) {
	var ref TableRef
	spec = strings.TrimSpace(spec)

	if strings.HasPrefix(spec, "[") && strings.HasSuffix(spec, "]") { // legacy

		// remove [ ]
		spec = spec[1 : len(spec)-1]

		// extract the project: part
		if parts := strings.SplitN(spec, ":", 2); len(parts) > 1 {
			ref.Project = parts[0]
			spec = parts[1]
		}
		// extract dataset name
		if parts := strings.SplitN(spec, ".", 2); len(parts) > 1 {
			ref.Dataset = parts[0]
			ref.Table = parts[1]
		}
	} else {
		// remove `` if any
		spec = strings.TrimSuffix(strings.TrimPrefix(spec, "`"), "`")

		parts := strings.SplitN(spec, ".", 3)
		switch len(parts) {
		case 3: // proj.dataset.table
			ref.Project, ref.Dataset, ref.Table = parts[0], parts[1], parts[2]
		case 2: // dataset.table
			ref.Dataset, ref.Table = parts[0], parts[1]
		default:
			ref.Table = parts[0]
		}
	}

	if ref.Table == "" || strings.ContainsAny(ref.Table+ref.Dataset+ref.Project, "` ;") {
		return TableRef{}, fmt.Errorf("invalid table spec: %q", spec)
	}
	return ref, nil
}
