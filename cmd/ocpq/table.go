package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/aarkue/OCPQ"
	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/ocel"
)

// formatResult renders a query result as one markdown table per tree node,
// the shape the teacher's TableFormatter renders a Relation as.
func formatResult(result *ocpq.Result, log *ocel.Log) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Events: %d, Objects: %d\n\n", len(result.EventIDs), len(result.ObjectIDs))

	for i, node := range result.Nodes {
		fmt.Fprintf(&sb, "### Node %d\n\n", i)
		fmt.Fprintf(&sb, "Satisfied: %d, Violated: %d\n\n",
			node.SituationCount-node.SituationViolatedCount, node.SituationViolatedCount)
		sb.WriteString(formatSituations(node.Situations, log))
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatSituations(situations []binding.Binding, log *ocel.Log) string {
	if len(situations) == 0 {
		return "_No situations_"
	}

	columns := situationColumns(situations)
	tableString := &strings.Builder{}
	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)

	for _, b := range situations {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellFor(b, col, log)
		}
		table.Append(row)
	}
	table.Render()
	fmt.Fprintf(tableString, "\n_%d rows_\n", len(situations))
	return tableString.String()
}

// situationColumns collects every variable name bound across situations, in
// a stable order: event variables first, then object variables.
func situationColumns(situations []binding.Binding) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, b := range situations {
		for _, v := range b.EventVars() {
			name := v.String()
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				cols = append(cols, name)
			}
		}
		for _, v := range b.ObjectVars() {
			name := v.String()
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				cols = append(cols, name)
			}
		}
	}
	return cols
}

func cellFor(b binding.Binding, col string, log *ocel.Log) string {
	for _, v := range b.EventVars() {
		if v.String() == col {
			idx, _ := b.GetEvent(v)
			return log.Event(idx).ID
		}
	}
	for _, v := range b.ObjectVars() {
		if v.String() == col {
			idx, _ := b.GetObject(v)
			return log.Object(idx).ID
		}
	}
	return ""
}
