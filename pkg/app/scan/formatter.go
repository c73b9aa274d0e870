package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// FormatOutput formats scan results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats results as a table
func formatTable(out io.Writer, response *Response) error {
	g := response.Geometry
	fmt.Fprintf(out, "Image:    %s\n", response.ImagePath)
	fmt.Fprintf(out, "Geometry: %d blocks x %d pages x (%d + %d) bytes\n",
		response.TotalBlocks, g.PagesPerBlock, g.PageSizeBytes, g.PageEccBytes)
	fmt.Fprintf(out, "Good:     %d blocks (%s usable)\n", response.GoodBlocks, app.FormatBytes(response.UsableBytes))
	fmt.Fprintf(out, "Bad:      %d blocks (%.1f%%)\n", len(response.BadBlocks), response.BadPercent())

	if len(response.BadBlocks) > 0 {
		list := make([]string, len(response.BadBlocks))
		for i, b := range response.BadBlocks {
			list[i] = fmt.Sprint(b)
		}
		fmt.Fprintf(out, "Bad list: %s\n", strings.Join(list, ", "))
	}

	if len(response.Mapping) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "LOGICAL\tPHYSICAL\n")
		fmt.Fprintf(w, "-------\t--------\n")
		for _, m := range response.Mapping {
			fmt.Fprintf(w, "%d\t%d\n", m.Logical, m.Physical)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nScanned with %d marker reads in %v\n", response.Stats.ByteReads, response.ScanTime)
	return nil
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}
