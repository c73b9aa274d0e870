package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ibl/internal/boot"
	"github.com/deploymenttheory/go-ibl/pkg/app"
	"github.com/deploymenttheory/go-ibl/pkg/app/mkimage"
)

var (
	mkMedium      string
	mkPayload     string
	mkBootTable   bool
	mkLoadAddress uint32
	mkEntry       uint32
	mkSwapWords   bool
	mkBadBlocks   []uint
)

var mkimageCmd = &cobra.Command{
	Use:   "mkimage <output>",
	Short: "Build a NAND or EEPROM image from a payload",
	Long: `Lay a payload out on an erased NAND array or EEPROM the way a programmer
would. NAND geometry and EEPROM layout come from the configuration.

Examples:
  # NAND image with two bad blocks holding a boot table
  ibl mkimage nand.bin --payload app.bin --boot-table --load-address 0x80000000 --bad-blocks 3,7

  # EEPROM image from a little-endian word dump
  ibl mkimage eeprom.bin --medium i2c --payload words.bin --swap-words`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMkimage(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(mkimageCmd)

	mkimageCmd.Flags().StringVar(&mkMedium, "medium", "nand", "medium to build (nand, i2c)")
	mkimageCmd.Flags().StringVar(&mkPayload, "payload", "", "file holding the image contents")
	mkimageCmd.Flags().BoolVar(&mkBootTable, "boot-table", false, "wrap the payload in a boot table")
	mkimageCmd.Flags().Uint32Var(&mkLoadAddress, "load-address", 0, "boot table section address")
	mkimageCmd.Flags().Uint32Var(&mkEntry, "entry", 0, "boot table entry point (defaults to the load address)")
	mkimageCmd.Flags().BoolVar(&mkSwapWords, "swap-words", false, "payload holds little-endian 32-bit words")
	mkimageCmd.Flags().UintSliceVar(&mkBadBlocks, "bad-blocks", nil, "NAND blocks to mark bad")
}

func runMkimage(cmd *cobra.Command, outputPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	medium, err := boot.ParseMedium(mkMedium)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid medium", err)
	}

	var payload []byte
	if mkPayload != "" {
		if payload, err = os.ReadFile(mkPayload); err != nil {
			return app.NewError(app.ErrCodeImageAccess, "failed to read payload", err)
		}
	}

	ctx := app.NewContext()
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.Out = cmd.OutOrStdout()

	entry := mkEntry
	if !cmd.Flags().Changed("entry") {
		entry = mkLoadAddress
	}

	bad := make([]uint32, len(mkBadBlocks))
	for i, b := range mkBadBlocks {
		bad[i] = uint32(b)
	}

	request := &mkimage.Request{
		Medium:      medium,
		OutputPath:  outputPath,
		Payload:     payload,
		BootTable:   mkBootTable,
		LoadAddress: mkLoadAddress,
		Entry:       entry,
		SwapWords:   mkSwapWords,
		NAND:        cfg.NAND.Geometry,
		BadBlocks:   bad,
		EEPROM:      cfg.I2C.EEPROMInfo,
	}

	response, err := mkimage.Handle(ctx, request)
	if err != nil {
		return err
	}

	return mkimage.FormatOutput(ctx.Out, response, ctx.OutputFormat)
}
