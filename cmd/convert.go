package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/busnet-sim/busnet-sim/sim/config"
)

var convertFormat string

var convertCmd = &cobra.Command{
	Use:   "convert INPUT",
	Short: "Convert a network configuration between the text and YAML formats",
	Long:  "Convert a network configuration to YAML (default) or to the line-oriented text format. Output is written to stdout for piping.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := convertConfig(args[0], convertFormat, os.Stdout); err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}
	},
}

// convertConfig loads path and writes it to w in format ("yaml" or "text").
func convertConfig(path, format string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	switch format {
	case "yaml":
		return config.EncodeYAML(w, cfg)
	case "text":
		return config.WriteText(w, cfg)
	}
	return fmt.Errorf("unknown format %q; valid: yaml, text", format)
}

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "to", "yaml", "Output format (yaml, text)")
	rootCmd.AddCommand(convertCmd)
}
