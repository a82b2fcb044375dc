package main

import (
	"fmt"

	"github.com/example/tinygraph/internal/mem"
	"github.com/spf13/cobra"
)

func newDotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot <graph.json>",
		Short: "Render a graph spec as Graphviz source",
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

			fmt.Fprint(cmd.OutOrStdout(), g.DOT())
			return nil
		},
	}
	return cmd
}
