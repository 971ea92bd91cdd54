// Package report renders ranked candidates for humans: a terminal table for
// the interactive loop and a CSV export for handoff to outreach tooling.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"leadgen/internal/lead"
)

var csvHeader = []string{
	"rank", "score", "name", "title", "organization", "location",
	"email", "email_verified", "publications", "open_to_nams",
}

// RenderTable renders the candidates as a terminal table in their current
// order.
func RenderTable(candidates *lead.Candidates) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Rank", "Score", "Name", "Title", "Organization", "Location", "Email"})

	for _, cand := range candidates.Items {
		title, _ := cand.StringAttr(lead.FieldTitle)
		org, _ := cand.StringAttr(lead.FieldOrganization)
		loc, _ := cand.StringAttr(lead.FieldLocation)
		email, _ := cand.StringAttr(lead.FieldEmail)

		tw.AppendRow(table.Row{cand.Rank, cand.Total(), cand.FullName, title, org, loc, email})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// WriteCSV exports the candidates in their current order.
func WriteCSV(w io.Writer, candidates *lead.Candidates) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, cand := range candidates.Items {
		title, _ := cand.StringAttr(lead.FieldTitle)
		org, _ := cand.StringAttr(lead.FieldOrganization)
		loc, _ := cand.StringAttr(lead.FieldLocation)
		email, _ := cand.StringAttr(lead.FieldEmail)

		openToNAMs := ""
		if research := cand.Research(); research != nil {
			openToNAMs = strconv.FormatBool(research.OpenToNAMs)
		}

		row := []string{
			strconv.Itoa(cand.Rank),
			strconv.Itoa(cand.Total()),
			cand.FullName,
			title,
			org,
			loc,
			email,
			strconv.FormatBool(cand.BoolAttr(lead.FieldEmailVerified)),
			strconv.Itoa(len(cand.Publications())),
			openToNAMs,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", cand.FullName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderByOrganization renders the grouped report used by the interactive
// loop, one block per organization.
func RenderByOrganization(candidates *lead.Candidates) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Organization", "Name", "Score", "Title", "Email"})

	grouped := candidates.ReportByOrganization()
	for org, entries := range grouped {
		for _, entry := range entries {
			tw.AppendRow(table.Row{org, entry["name"], entry["score"], entry["title"], entry["email"]})
		}
	}
	tw.SortBy([]table.SortBy{
		{Name: "Organization", Mode: table.Asc},
		{Name: "Score", Mode: table.DscNumeric},
	})

	return tw.Render()
}
