package dump

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// FormatOutput formats the dump summary
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
		fmt.Fprintf(w, "Copied %s from %s at offset %d in %v\n",
			app.FormatBytes(uint64(response.Bytes)), response.Medium, response.Offset, response.Elapsed)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
