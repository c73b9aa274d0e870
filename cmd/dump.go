package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibl/pkg/app"
	"github.com/deploymenttheory/go-ibl/pkg/app/dump"
)

var (
	dumpOffset int64
	dumpLength int64
	dumpOut    string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Copy a range of the boot image stream",
	Long: `Copy bytes of the boot image as the boot loader sees them: NAND bad
blocks are skipped and EEPROM data starts at the configured data address.

Examples:
  # First 64 KiB of the NAND image into a file
  ibl dump --nand-image nand.bin --length 65536 --out head.bin

  # Pipe a range to a hex viewer
  ibl dump --media i2c --i2c-image eeprom.bin --offset 0x100 --length 256 | xxd`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(cmd)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Int64Var(&dumpOffset, "offset", 0, "byte offset into the image")
	dumpCmd.Flags().Int64Var(&dumpLength, "length", 0, "bytes to copy")
	dumpCmd.Flags().StringVar(&dumpOut, "out", "-", "output file, - for stdout")
	_ = dumpCmd.MarkFlagRequired("length")
}

func runDump(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := app.NewContext()
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.Out = cmd.OutOrStdout()

	toStdout := dumpOut == "-"
	var out io.Writer = ctx.Out
	if !toStdout {
		f, err := os.Create(dumpOut)
		if err != nil {
			return app.NewError(app.ErrCodeImageAccess, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	request := &dump.Request{
		Config: cfg,
		Offset: dumpOffset,
		Length: dumpLength,
		Output: out,
	}
	if !toStdout && !ctx.Quiet {
		request.OnProgress = func(p *app.ProgressUpdate) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%% %s/s ETA %v", p.Percent(), app.FormatBytes(uint64(p.Rate())), p.ETA().Round(time.Second))
		}
	}

	response, err := dump.Handle(ctx, request)
	if err != nil {
		return err
	}
	if toStdout {
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr())
	return dump.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}
