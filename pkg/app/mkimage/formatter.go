package mkimage

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-ibl/pkg/app"
)

// FormatOutput formats the created image summary
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
		fmt.Fprintf(w, "Wrote %s image %s (%s, payload %s)\n", response.Medium, response.Path,
			app.FormatBytes(uint64(response.ImageBytes)), app.FormatBytes(uint64(response.PayloadBytes)))
		if len(response.BadBlocks) > 0 {
			fmt.Fprintf(w, "Bad blocks: %v\n", response.BadBlocks)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
