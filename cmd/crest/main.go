package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crest/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "crest",
	Short: "Crest IR optimizer",
	Long:  `Crest rewrites serialized IR modules, inlining calls between their functions`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(inlineCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
