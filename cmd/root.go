package cmd

import (
	goflag "flag"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/deploymenttheory/go-ibl/internal/config"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	logLevel     int

	cfgFile string

	klogFlags = goflag.NewFlagSet("klog", goflag.ContinueOnError)
)

var rootCmd = &cobra.Command{
	Use:   "ibl",
	Short: "Boot loader media reader for NAND flash and I2C EEPROM images",
	Long: `ibl opens raw NAND flash and I2C EEPROM dumps the way the boot loader
reads the real parts: bad blocks are skipped, the image is read as one
continuous stream and the boot image is loaded into a simulated memory map.

Commands:
  scan        Scan a NAND dump for bad blocks
  load        Boot from the configured media and load the image
  dump        Copy a range of the boot image stream
  mkimage     Build a NAND or EEPROM image from a payload`,
	Version:      "0.1.0-dev",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel > 0 {
			return klogFlags.Set("v", strconv.Itoa(logLevel))
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ibl-config.yaml in ., ./config, $HOME/.ibl, /etc/ibl)")
	rootCmd.PersistentFlags().IntVar(&logLevel, "log-level", 0, "klog verbosity")

	// Media selection, shared by every command that opens the boot media
	rootCmd.PersistentFlags().StringSlice("media", nil, "boot media in the order tried (nand, i2c)")
	rootCmd.PersistentFlags().String("nand-image", "", "raw NAND dump, spare bytes included")
	rootCmd.PersistentFlags().String("i2c-image", "", "I2C EEPROM image")
	_ = viper.BindPFlag("media", rootCmd.PersistentFlags().Lookup("media"))
	_ = viper.BindPFlag("nand.image", rootCmd.PersistentFlags().Lookup("nand-image"))
	_ = viper.BindPFlag("i2c.image", rootCmd.PersistentFlags().Lookup("i2c-image"))

	// klog's -v clashes with --verbose; it is exposed as --log-level instead
	klog.InitFlags(klogFlags)
	klogFlags.VisitAll(func(f *goflag.Flag) {
		if f.Name != "v" {
			rootCmd.PersistentFlags().AddGoFlag(f)
		}
	})
}

// loadConfig reads the configuration with command line overrides applied
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper(), cfgFile)
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}
