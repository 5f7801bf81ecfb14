package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rill/internal/media"
	"rill/internal/selector"
	"rill/internal/store"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

var sourceHeaders = []string{"PROVIDER", "NAME", "ENTITY", "SIZE", "SEEDS", "LEECH", "RATIO"}

var sourceAligns = []columnAlignment{
	alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight,
}

// titleCaser pretties up entity names, which are stored lower-cased.
var titleCaser = cases.Title(language.English, cases.NoLower)

func sourceRow(src *media.Source) []string {
	entity := ""
	if src.Entity() != nil {
		entity = titleCaser.String(src.Entity().DisplayString())
	}
	return []string{
		src.Provider,
		src.Name,
		entity,
		formatSize(src.Size),
		fmt.Sprintf("%d", src.Seeds),
		fmt.Sprintf("%d", src.Leechers),
		formatRatio(src),
	}
}

func groupRows(groups []selector.Group) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		for i, src := range g.Sources {
			row := sourceRow(src)
			if i > 0 {
				row[2] = ""
			}
			rows = append(rows, row)
		}
	}
	return rows
}

var downloadHeaders = []string{"ID", "SOURCE", "BACKEND", "STATE", "UPDATED"}

var downloadAligns = []columnAlignment{
	alignRight, alignRight, alignLeft, alignLeft, alignLeft,
}

func downloadRow(d *store.Download) []string {
	return []string{
		fmt.Sprintf("%d", d.ID),
		fmt.Sprintf("%d", d.SourceID),
		d.Backend,
		d.State,
		d.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func formatSize(size int64) string {
	if size <= 0 {
		return ""
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRatio(src *media.Source) string {
	ratio, defined := src.ShareRatio()
	if !defined {
		return ""
	}
	s := fmt.Sprintf("%.2f", ratio)
	if strings.Contains(s, "Inf") {
		return "inf"
	}
	return s
}
