/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogLoadsAndValidates(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("embedded catalog must validate: %v", err)
	}
	if len(c.All()) == 0 {
		t.Fatalf("embedded catalog is empty")
	}
	a, ok := c.Get("bench.simple")
	if !ok {
		t.Fatalf("bench.simple missing from default catalog")
	}
	if a.Color == "" || a.DefaultScale <= 0 || a.DefaultHeight <= 0 {
		t.Fatalf("asset defaults not populated: %+v", a)
	}
}

func TestGetAndAllAgree(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, a := range c.All() {
		got, ok := c.Get(a.ID)
		if !ok || got != a {
			t.Fatalf("Get(%q) disagrees with All(): %+v vs %+v", a.ID, got, a)
		}
	}
}

func TestLoadFileRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing id":   `{"version":1,"assets":[{"name":"Nameless","color":"#112233"}]}`,
		"bad color":    `{"version":1,"assets":[{"id":"x","name":"X","color":"green"}]}`,
		"no version":   `{"assets":[]}`,
		"extra fields": `{"version":1,"assets":[],"junk":true}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "catalog.json")
			if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadFile(p); err == nil {
				t.Fatalf("expected schema violation for %s", name)
			} else if !strings.Contains(err.Error(), "schema") {
				t.Fatalf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestLoadFileRejectsDuplicateIDs(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"version":1,"assets":[
		{"id":"x","name":"A","color":"#112233"},
		{"id":"x","name":"B","color":"#445566"}
	]}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(p); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestCategoriesOrdered(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cats := c.Categories()
	if len(cats) == 0 || cats[0] != "greenery" {
		t.Fatalf("expected greenery first, got %v", cats)
	}
}
