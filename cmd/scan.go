package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-ibl/pkg/app"
	"github.com/deploymenttheory/go-ibl/pkg/app/scan"
)

var showMapping bool

var scanCmd = &cobra.Command{
	Use:   "scan [nand-image]",
	Short: "Scan a raw NAND dump for bad blocks",
	Long: `Scan every block of a raw NAND dump for a bad-block marker and report the
translation from logical to physical blocks the boot loader would use.

Geometry comes from the config file unless overridden on the command line.

Examples:
  # Scan a large-page dump with the configured geometry
  ibl scan nand.bin

  # Small-page part, with the block mapping
  ibl scan nand.bin --page-size 512 --ecc-bytes 16 --pages-per-block 32 --blocks 4096 --mapping`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image := ""
		if len(args) == 1 {
			image = args[0]
		}
		return runScan(cmd, image)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Uint32("page-size", 0, "bytes of data per page")
	scanCmd.Flags().Uint32("ecc-bytes", 0, "spare bytes per page")
	scanCmd.Flags().Uint32("pages-per-block", 0, "pages per erase block")
	scanCmd.Flags().Uint32("blocks", 0, "erase blocks in the array")
	scanCmd.Flags().BoolVar(&showMapping, "mapping", false, "print the logical to physical block table")

	_ = viper.BindPFlag("nand.page_size_bytes", scanCmd.Flags().Lookup("page-size"))
	_ = viper.BindPFlag("nand.page_ecc_bytes", scanCmd.Flags().Lookup("ecc-bytes"))
	_ = viper.BindPFlag("nand.pages_per_block", scanCmd.Flags().Lookup("pages-per-block"))
	_ = viper.BindPFlag("nand.total_blocks", scanCmd.Flags().Lookup("blocks"))
}

func runScan(cmd *cobra.Command, imagePath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if imagePath == "" {
		imagePath = cfg.NAND.Image
	}

	// Create application context
	ctx := app.NewContext()
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.Out = cmd.OutOrStdout()

	request := &scan.Request{
		ImagePath:   imagePath,
		Device:      cfg.NAND.DeviceInfo,
		ShowMapping: showMapping,
	}

	response, err := scan.Handle(ctx, request)
	if err != nil {
		return err
	}

	return scan.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}
