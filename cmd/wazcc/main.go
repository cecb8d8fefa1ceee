// Command wazcc is a thin cobra front end over the compiler library (§6.1 AMBIENT STACK): it
// compiles one or more .wasm files into a shared environment and reports what came out, or runs
// the gas instrumenter standalone and prints the resulting segment/cost breakdown. Mirrors the
// shape of wazero's own example CLIs — a small command tree over a library that does not log on
// its own behalf.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/compiler"
	"github.com/chainvm/wazc/internal/gas"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/loader"
	"github.com/chainvm/wazc/internal/wasm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wazcc",
		Short: "Compile WebAssembly modules into chainvm istream bytecode",
	}
	root.AddCommand(newCompileCmd(), newGasCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.wasm>...",
		Short: "Compile one or more .wasm files into a shared environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := wasm.NewEnvironment()
			ld := loader.New(env, compiler.Options{Features: api.FeaturesMVP})

			for i, path := range args {
				name := fmt.Sprintf("module%d", i)
				mod, err := ld.LoadFile(name, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: istream [%d, %d), %d export(s)\n",
					path, mod.IstreamStart, mod.IstreamEnd, len(mod.Exports))
			}
			return nil
		},
	}
}

func newGasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gas <file.wasm>",
		Short: "Run the gas instrumenter standalone and print each function's segment costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			bodies, err := gas.RecordFunctionBodies(bytes, api.FeaturesMVP)
			if err != nil {
				return err
			}
			for i, ops := range bodies {
				exprs, err := gas.Decode(ops)
				if err != nil {
					return fmt.Errorf("function %d: %w", i, err)
				}
				out := gas.Instrument(exprs)
				fmt.Fprintf(cmd.OutOrStdout(), "function %d:\n", i)
				for _, e := range out {
					if e.Op == istream.OpAddGas {
						fmt.Fprintf(cmd.OutOrStdout(), "  AddGas %d\n", e.Cost)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e.Op)
				}
			}
			return nil
		},
	}
}

