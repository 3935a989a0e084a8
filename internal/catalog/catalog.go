/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog provides the read-only palette of placeable assets.
// The placement controller copies an asset's default scale and color
// into each new instance; beyond that the catalog is display metadata.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed assets.json
var defaultAssetsJSON []byte

//go:embed schema.json
var schemaJSON []byte

// Asset is one placeable entry in the palette.
type Asset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	Color         string  `json:"color"`
	DefaultScale  float64 `json:"defaultScale,omitempty"`
	DefaultHeight float64 `json:"defaultHeight,omitempty"`
}

type catalogFile struct {
	Version int     `json:"version"`
	Assets  []Asset `json:"assets"`
}

// Catalog is an immutable, ordered asset collection with id lookup.
type Catalog struct {
	assets []Asset
	byID   map[string]Asset
}

// Default loads the embedded catalog. The embedded data is validated
// like any external file; a failure here is a packaging bug.
func Default() (*Catalog, error) {
	return parse(defaultAssetsJSON)
}

// LoadFile loads and validates a catalog from a user-provided path.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(b)
}

func parse(data []byte) (*Catalog, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{assets: f.Assets, byID: make(map[string]Asset, len(f.Assets))}
	for i := range c.assets {
		a := &c.assets[i]
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate asset id %q", a.ID)
		}
		if a.DefaultScale == 0 {
			a.DefaultScale = 1
		}
		if a.DefaultHeight == 0 {
			a.DefaultHeight = 1
		}
		c.byID[a.ID] = *a
	}
	return c, nil
}

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("catalog does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Get returns the asset with the given id.
func (c *Catalog) Get(id string) (Asset, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// All returns the assets in palette order.
func (c *Catalog) All() []Asset {
	return append([]Asset(nil), c.assets...)
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range c.assets {
		if a.Category != "" && !seen[a.Category] {
			seen[a.Category] = true
			out = append(out, a.Category)
		}
	}
	return out
}
