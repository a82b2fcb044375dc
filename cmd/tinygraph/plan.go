package main

import (
	"fmt"

	"github.com/example/tinygraph/internal/mem"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <graph.json>",
		Short: "Load a graph spec, optimize it, and plan its memory layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := ReadGraphSpec(args[0])
			if err != nil {
				return err
			}

			runtime := mem.NewHeapRuntime(activeCfg.Allocator.Runtime)
			g, err := BuildGraph(gs, runtime, activeCfg.Allocator.Alignment)
			if err != nil {
				return fmt.Errorf("build graph: %w", err)
			}
			defer g.Close()

			if !g.TopoSort() {
				return fmt.Errorf("graph does not topologically sort; it contains a cycle")
			}
			if err := g.ShapeInfer(); err != nil {
				return fmt.Errorf("shape inference: %w", err)
			}
			if err := g.CheckValid(); err != nil {
				return fmt.Errorf("graph failed validation: %w", err)
			}

			if activeCfg.Optimize.Enabled {
				g.Optimize()
				if err := g.CheckValid(); err != nil {
					return fmt.Errorf("graph failed validation after optimize: %w", err)
				}
			}

			if err := g.DataMalloc(); err != nil {
				return fmt.Errorf("plan memory: %w", err)
			}

			info := g.Allocator().Info()
			fmt.Fprintf(cmd.OutOrStdout(), "tensors=%d ops=%d peak_bytes=%d alignment=%d\n",
				len(g.Tensors()), len(g.Ops()), info.Peak, info.Alignment)
			return nil
		},
	}
	return cmd
}
