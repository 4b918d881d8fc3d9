package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sungwon/recipient-check/internal/collector"
	"github.com/sungwon/recipient-check/internal/pipeline"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPreview(w io.Writer, p *pipeline.Preview, asJSON bool) error {
	if asJSON {
		return printJSON(w, p)
	}
	for _, g := range collector.Groups {
		addrs := p.Recipients.Group(g)
		fmt.Fprintf(w, "%-4s (%d) %s\n", strings.ToUpper(string(g)), len(addrs), strings.Join(addrs, ", "))
	}
	return nil
}

func printResult(w io.Writer, res *pipeline.RunResult, asJSON bool) error {
	if asJSON {
		return printJSON(w, struct {
			*pipeline.RunResult
			AllValid bool `json:"all_valid"`
		}{res, res.AllValid()})
	}

	fmt.Fprintf(w, "checked %d recipients\n", res.Checked)
	if res.AllValid() {
		fmt.Fprintln(w, "all recipients are valid")
	} else {
		fmt.Fprintf(w, "invalid (%d):\n", len(res.Invalid))
		for _, a := range res.Invalid {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	if len(res.Corrections) > 0 {
		fmt.Fprintln(w, "did you mean:")
		for _, c := range res.Corrections {
			fmt.Fprintf(w, "  %s -> %s\n", c.Original, c.Suggested)
		}
	}
	return nil
}
