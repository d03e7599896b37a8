package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crest/internal/optpipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] path",
	Short: "Check the IR invariants of a module file or directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	files := []string{path}
	if info.IsDir() {
		files, err = optpipeline.ListModuleFiles(path)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no %s files under %s", optpipeline.ModuleExt, path)
		}
	}

	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !colorEnabled(colorFlag, os.Stdout) {
		ok.DisableColor()
		bad.DisableColor()
	}

	broken := 0
	for _, file := range files {
		m, err := loadModule(file)
		if err == nil {
			err = optpipeline.VerifyModule(m)
		}
		if err != nil {
			broken++
			bad.Fprintf(cmd.OutOrStdout(), "invalid %s\n", file)
			fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
			continue
		}
		if !quiet {
			ok.Fprintf(cmd.OutOrStdout(), "ok %s\n", file)
		}
	}
	if broken > 0 {
		return fmt.Errorf("%d of %d files invalid", broken, len(files))
	}
	return nil
}
