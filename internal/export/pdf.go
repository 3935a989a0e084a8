/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a proposal sandbox into shareable artifacts: a
// PDF summary sheet and a top-down PNG plan view.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"citysketch/internal/catalog"
	"citysketch/internal/domain"
)

// PDFOptions controls the summary sheet.
type PDFOptions struct {
	Title      string // defaults to "Proposal <id>"
	MaxObjects int    // cap for the object table; 0 means all
}

// ExportProposalPDF writes a one-proposal summary PDF: header metadata,
// per-asset counts, and a table of every placed object. Built-in
// Helvetica keeps the text vector without font embedding.
func ExportProposalPDF(scene domain.Scene, cat *catalog.Catalog, proposalID, outPath string, opt PDFOptions) error {
	title := opt.Title
	if title == "" {
		title = fmt.Sprintf("Proposal %s", proposalID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("CitySketch", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Objects: %d", len(scene.Objects)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Per-asset counts, stable order.
	counts := map[string]int{}
	for _, o := range scene.Objects {
		counts[o.AssetID]++
	}
	assetIDs := make([]string, 0, len(counts))
	for id := range counts {
		assetIDs = append(assetIDs, id)
	}
	sort.Strings(assetIDs)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Asset summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, id := range assetIDs {
		name := id
		if a, ok := cat.Get(id); ok {
			name = a.Name
		}
		pdf.CellFormat(100, 6, name, "B", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", counts[id]), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Placed objects", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(60, 5, "Asset", "B", 0, "L", false, 0, "")
	pdf.CellFormat(32, 5, "Longitude", "B", 0, "R", false, 0, "")
	pdf.CellFormat(32, 5, "Latitude", "B", 0, "R", false, 0, "")
	pdf.CellFormat(20, 5, "Rot (deg)", "B", 0, "R", false, 0, "")
	pdf.CellFormat(20, 5, "Scale", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)

	rows := scene.Objects
	if opt.MaxObjects > 0 && len(rows) > opt.MaxObjects {
		rows = rows[:opt.MaxObjects]
	}
	for _, o := range rows {
		name := o.AssetID
		if a, ok := cat.Get(o.AssetID); ok {
			name = a.Name
		}
		pdf.CellFormat(60, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(32, 5, fmt.Sprintf("%.6f", o.Position.X), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 5, fmt.Sprintf("%.6f", o.Position.Y), "", 0, "R", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%.1f", o.Rotation.Z), "", 0, "R", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%.2f", o.Scale.X), "", 1, "R", false, 0, "")
	}
	if len(rows) < len(scene.Objects) {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("... and %d more", len(scene.Objects)-len(rows)), "", 1, "L", false, 0, "")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
