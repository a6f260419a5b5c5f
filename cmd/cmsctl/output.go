package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// printResult writes data as JSON or YAML, or hands a table to fill for the
// default format.
func printResult(w io.Writer, format string, data any, fill func(*tablewriter.Table)) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "":
		table := tablewriter.NewWriter(w)
		fill(table)
		return table.Render()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
