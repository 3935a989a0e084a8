/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"citysketch/internal/catalog"
	"citysketch/internal/config"
	"citysketch/internal/crash"
	"citysketch/internal/export"
	applog "citysketch/internal/log"
	"citysketch/internal/persist"
	"citysketch/internal/ui"
	"citysketch/internal/version"
)

func usage() {
	fmt.Println("CitySketch — urban intervention sandbox")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  citysketch version|-v|--version             Show version")
	fmt.Println("  citysketch catalog [file]                   List the asset catalog (embedded or from file)")
	fmt.Println("  citysketch export pdf <proposalId> <out>    Export a proposal summary PDF")
	fmt.Println("  citysketch export png <proposalId> <out>    Export a top-down plan PNG")
	fmt.Println("  citysketch ui <proposalId>                  Launch the desktop editor (build with -tags fyne)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(nil)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("CitySketch — urban intervention sandbox")
			fmt.Println(version.String())
			return
		case "catalog":
			file := ""
			if len(args) >= 3 {
				file = args[2]
			}
			if err := runCatalog(file); err != nil {
				l.Error("catalog failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "export":
			if len(args) < 5 {
				fmt.Println("export requires a format (pdf|png), <proposalId> and <out>")
				usage()
				os.Exit(2)
			}
			if err := runExport(args[2], args[3], args[4]); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			proposal := ""
			if len(args) >= 3 {
				proposal = args[2]
			}
			if err := ui.Run(proposal); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func runCatalog(file string) error {
	var (
		cat *catalog.Catalog
		err error
	)
	if file != "" {
		cat, err = catalog.LoadFile(file)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}
	for _, c := range cat.Categories() {
		fmt.Println(c + ":")
		for _, a := range cat.All() {
			if a.Category != c {
				continue
			}
			fmt.Printf("  %-20s %s (scale %.1f, height %.1fm)\n", a.ID, a.Name, a.DefaultScale, a.DefaultHeight)
		}
	}
	return nil
}

func runExport(format, proposalID, out string) error {
	cfg, token, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	if cfg.Editor.CatalogFile != "" {
		if cat, err = catalog.LoadFile(cfg.Editor.CatalogFile); err != nil {
			return err
		}
	}

	client := persist.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.EffectiveTimeout())
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
	defer cancel()
	res, err := client.LoadSandbox(ctx, proposalID)
	if err != nil {
		return err
	}
	if !res.Exists {
		return fmt.Errorf("proposal %s has no stored sandbox", proposalID)
	}

	switch format {
	case "pdf":
		return export.ExportProposalPDF(res.Scene, cat, proposalID, out, export.PDFOptions{})
	case "png":
		return export.ExportPlanPNG(res.Scene, cat, out, export.PNGOptions{Labels: true})
	default:
		return fmt.Errorf("unknown export format %q (want pdf or png)", format)
	}
}
