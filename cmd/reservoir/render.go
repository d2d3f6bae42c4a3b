package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/plan"
	"github.com/katalvlaran/reservoir/series"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatCSV, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (table, csv, json)", format)
	}
}

func table(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func exact(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func stepColumns() []string {
	cols := []string{"period", "storage"}
	for _, s := range series.Sectors {
		cols = append(cols, s.String())
	}

	return append(cols, "spill", "env_flow", "violation", "makeup", "unmet")
}

func stepRow(st plan.Step, f func(float64) string) []string {
	row := []string{strconv.Itoa(int(st.Period)), f(st.Storage)}
	for _, s := range series.Sectors {
		row = append(row, f(st.Release[s]))
	}
	var unmet float64
	for _, s := range series.Sectors {
		unmet += st.Unmet(s)
	}

	return append(row, f(st.Spill), f(st.EnvFlow), f(st.Violation), f(st.Makeup), f(unmet))
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTab(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, r := range append([][]string{header}, rows...) {
		for _, c := range r {
			fmt.Fprint(tw, c, "\t")
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}

	return cw.Error()
}

// render prints one plan.
func render(w io.Writer, format string, p *plan.Plan) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return encodeJSON(w, p)
	}

	f := table
	if format == formatCSV {
		f = exact
	}
	rows := make([][]string, len(p.Steps))
	for i, st := range p.Steps {
		rows[i] = stepRow(st, f)
	}
	if format == formatCSV {
		return writeCSV(w, stepColumns(), rows)
	}

	fmt.Fprintf(w, "mode=%s source=%s status=%s objective=%s value=%s\n",
		p.ModeName, p.Source, p.Status, p.Objective, table(p.Value))
	if len(rows) == 0 {
		return nil
	}

	return writeTab(w, stepColumns(), rows)
}

func renderValuation(w io.Writer, format string, v model.Valuation) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return encodeJSON(w, v)
	}

	f := table
	if format == formatCSV {
		f = exact
	}
	header := []string{"period"}
	for _, s := range series.Sectors {
		header = append(header, "benefit_"+s.String())
	}
	header = append(header, "spill_cost", "penalty", "net")
	rows := make([][]string, len(v.Periods))
	for i, pv := range v.Periods {
		row := []string{strconv.Itoa(int(pv.Period))}
		for _, s := range series.Sectors {
			row = append(row, f(pv.Benefit[s]))
		}
		rows[i] = append(row, f(pv.SpillCost), f(pv.Penalty), f(pv.Net))
	}
	if format == formatCSV {
		return writeCSV(w, header, rows)
	}

	fmt.Fprintf(w, "crop_revenue=%s total=%s\n", table(v.CropRevenue), table(v.Total))

	return writeTab(w, header, rows)
}

// summary is one row of a comparison.
type summary struct {
	Mode         string  `json:"mode"`
	Status       string  `json:"status"`
	Objective    string  `json:"objective"`
	Value        float64 `json:"value"`
	FinalStorage float64 `json:"final_storage"`
	TotalRelease float64 `json:"total_release"`
	TotalUnmet   float64 `json:"total_unmet"`
	NetBenefit   float64 `json:"net_benefit"`
}

func summarize(p *plan.Plan, v model.Valuation) summary {
	s := summary{
		Mode:      p.ModeName,
		Status:    p.Status.String(),
		Objective: p.Objective,
		Value:     p.Value,
	}
	if n := len(p.Steps); n > 0 {
		s.FinalStorage = p.Steps[n-1].Storage
		for _, st := range p.Steps {
			s.TotalRelease += st.TotalRelease()
		}
		s.TotalUnmet = p.TotalUnmet()
		s.NetBenefit = v.Total
	}

	return s
}

func renderComparison(w io.Writer, format string, plans []*plan.Plan, vals []model.Valuation) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	out := make([]summary, len(plans))
	for i, p := range plans {
		out[i] = summarize(p, vals[i])
	}
	if format == formatJSON {
		return encodeJSON(w, out)
	}

	f := table
	if format == formatCSV {
		f = exact
	}
	header := []string{"mode", "status", "objective", "value", "final_storage", "total_release", "total_unmet", "net_benefit"}
	rows := make([][]string, len(out))
	for i, s := range out {
		rows[i] = []string{s.Mode, s.Status, s.Objective, f(s.Value), f(s.FinalStorage),
			f(s.TotalRelease), f(s.TotalUnmet), f(s.NetBenefit)}
	}
	if format == formatCSV {
		return writeCSV(w, header, rows)
	}

	return writeTab(w, header, rows)
}
