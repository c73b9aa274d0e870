package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibl/pkg/app"
	"github.com/deploymenttheory/go-ibl/pkg/app/load"
)

var (
	loadOutputDir string
	loadTimeout   time.Duration
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Boot from the configured media and load the image into memory",
	Long: `Open the configured boot media in order, retrying transient hardware
failures, and load the boot image from the first medium that opens.
ELF images are recognised by their header; anything else is read as a
boot table or a raw blob depending on loader.format.

Examples:
  # Boot from a NAND dump, falling back to the EEPROM
  ibl load --nand-image nand.bin --i2c-image eeprom.bin

  # Save every loaded memory range
  ibl load -c board.yaml --out-dir ram/ -o json`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadOutputDir, "out-dir", "", "write each loaded memory range to this directory")
	loadCmd.Flags().DurationVar(&loadTimeout, "timeout", 0, "give up after this long (0 for no limit)")
}

func runLoad(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := app.NewContext()
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.Out = cmd.OutOrStdout()

	request := &load.Request{
		Config:    cfg,
		OutputDir: loadOutputDir,
		Timeout:   loadTimeout,
	}

	response, err := load.Handle(ctx, request)
	if err != nil {
		return err
	}

	return load.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}
