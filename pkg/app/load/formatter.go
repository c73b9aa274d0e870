package load

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// FormatOutput formats load results according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(out io.Writer, response *Response) error {
	res := response.Result
	fmt.Fprintf(out, "Booted from %s (%s image)\n", response.Medium, res.Format)
	fmt.Fprintf(out, "Entry point: 0x%08x\n", res.Entry)
	fmt.Fprintf(out, "Image size:  %s read, %s written\n",
		app.FormatBytes(uint64(res.ImageSize)), app.FormatBytes(response.Written))

	if len(res.Segments) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ADDRESS\tFILE SIZE\tMEM SIZE\n")
		fmt.Fprintf(w, "-------\t---------\t--------\n")
		for _, s := range res.Segments {
			fmt.Fprintf(w, "0x%08x\t%d\t%d\n", s.Address, s.FileSize, s.MemSize)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for _, f := range response.Files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}

	fmt.Fprintf(out, "\n%d page reads, %d byte reads, %s transferred in %v\n",
		response.Stats.PageReads, response.Stats.ByteReads,
		app.FormatBytes(response.Stats.BytesTransferred), response.Elapsed)
	return nil
}
