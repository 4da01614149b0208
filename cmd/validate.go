package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/busnet-sim/busnet-sim/sim/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate INPUT",
	Short: "Check a network configuration without running it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateConfig(args[0], os.Stdout); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
	},
}

// validateConfig prints every warning and a one-line verdict to w.
func validateConfig(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	warnings, err := cfg.Validate()
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if err != nil {
		return err
	}
	kind := "single run"
	if cfg.Experimental() {
		kind = "experiment"
	}
	fmt.Fprintf(w, "%s: valid (%s, %d routes, %d roads)\n", path, kind, len(cfg.Routes), len(cfg.Roads))
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
