package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/imrishuroy/rental-dispatch/internal/dashboard"
	"github.com/imrishuroy/rental-dispatch/internal/orders"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderOrders(w io.Writer, items []json.RawMessage) {
	lines, skipped := orders.Lines(items)
	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tCLIENT\tVENUE\tPICKUP\tDROPOFF\tITEM\tQTY\tRACKS")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			dash(l.Order), dash(l.Client), dash(l.Venue), dash(l.Pickup), dash(l.Dropoff),
			dash(l.Item), l.Quantity.String(), racks(l.Racks))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d line(s) from %d record(s)", len(lines), len(items))
	if skipped > 0 {
		fmt.Fprintf(w, ", %d record(s) not recognised", skipped)
	}
	fmt.Fprintln(w)
}

// renderRows prints schema-less rows with id first and the other columns sorted.
func renderRows(w io.Writer, rows []map[string]interface{}) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "no rows")
		return
	}
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] && k != "id" {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	if _, ok := rows[0]["id"]; ok {
		cols = append([]string{"id"}, cols...)
	}

	tw := newTable(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(r[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func renderSchedule(w io.Writer, s *dashboard.Schedule) {
	tw := newTable(w)
	fmt.Fprintln(tw, "VEHICLE\tTYPE\tLOAD\tSTATUS")
	for _, v := range s.Vehicles {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\n", v.Name, v.Type, v.Capacity, v.Status)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	tw = newTable(w)
	fmt.Fprintln(tw, "CLIENT\tVENUE\tDIFFICULTY\tSTATUS\tITEMS")
	for _, o := range s.RecentOrders {
		difficulty := "-"
		for _, v := range s.Venues {
			if v.Name == o.Venue {
				difficulty = fmt.Sprintf("%d/10", v.Difficulty)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", o.Client, o.Venue, difficulty, o.Status, o.Items)
	}
	_ = tw.Flush()
}

func renderAnalysis(w io.Writer, a *dashboard.Analysis) {
	for _, k := range a.KPIs {
		fmt.Fprintf(w, "%s: %s\n", k.Label, k.Value)
	}
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "DAY\tCOST\tLOAD")
	for _, d := range a.Series {
		fmt.Fprintf(tw, "%s\t$%d\t%d%%\n", d.Name, d.Cost, d.Load)
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func racks(q orders.Quantity) string {
	if q == 0 {
		return "-"
	}
	return q.String()
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return dash(t)
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
