package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crest/internal/ir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] file.cir",
	Short: "Print the functions of a module file as text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("func", "", "dump only the named function")
}

func runDump(cmd *cobra.Command, args []string) error {
	m, err := loadModule(args[0])
	if err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("func"); name != "" {
		f := m.Func(name)
		if f == nil {
			return fmt.Errorf("no function %q in %s", name, args[0])
		}
		return ir.Fprint(os.Stdout, f)
	}

	for i, f := range m.Funcs {
		if i > 0 {
			fmt.Println()
		}
		if err := ir.Fprint(os.Stdout, f); err != nil {
			return err
		}
	}
	return nil
}
