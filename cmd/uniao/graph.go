package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/domain/entities"
)

func newGraphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show or publish the union graph",
		Long:  "Derives the node/edge view of the union: partners, members, the union wallet and assets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphShow(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format (tree, json, dot)")

	cmd.AddCommand(
		newGraphShowCmd(),
		newGraphPublishCmd(),
		newGraphPingCmd(),
	)

	return cmd
}

func newGraphShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the union graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphShow(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format (tree, json, dot)")

	return cmd
}

func runGraphShow(cmd *cobra.Command, format string) error {
	if !contains(validGraphFormats, format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", format, validGraphFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		g, err := d.Graph.HandleShow(ctx, d.Session)
		if err != nil {
			return fmt.Errorf("building graph: %w", err)
		}
		return renderGraph(os.Stdout, g, format)
	})
}

func renderGraph(w io.Writer, g *entities.Graph, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(g)
	case "dot":
		return renderDOT(w, g)
	case "tree":
		return renderTree(w, g)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// renderTree prints every node under the nodes pointing at it, starting
// from the union node.
func renderTree(w io.Writer, g *entities.Graph) error {
	children := make(map[string][]entities.Edge)
	for _, e := range g.Edges {
		children[e.Source] = append(children[e.Source], e)
	}

	roots := g.NodesOfKind(entities.NodeUnion)
	if len(roots) == 0 {
		_, err := fmt.Fprintln(w, "(empty graph)")
		return err
	}

	var walk func(id, prefix string, edge *entities.Edge, last bool, depth int) error
	walk = func(id, prefix string, edge *entities.Edge, last bool, depth int) error {
		node := g.Node(id)
		if node == nil {
			return nil
		}

		line := fmt.Sprintf("%s [%s]", node.Label, node.Kind)
		if edge != nil && edge.Kind == entities.EdgeEarmarkedFor {
			line = "for " + line
		}

		branch, next := "", ""
		if depth > 0 {
			branch, next = "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, line); err != nil {
			return err
		}

		// Earmark edges point back into the tree; stop there.
		if edge != nil && edge.Kind == entities.EdgeEarmarkedFor {
			return nil
		}

		out := children[id]
		for i := range out {
			childPrefix := prefix + next
			if err := walk(out[i].Target, childPrefix, &out[i], i == len(out)-1, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root.ID, "", nil, true, 0); err != nil {
			return err
		}
	}
	return nil
}

func renderDOT(w io.Writer, g *entities.Graph) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", g.UnionID)
	b.WriteString("  rankdir=LR;\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %q [label=%q, shape=%s];\n", n.ID, n.Label, dotShape(n.Kind))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.Source, e.Target, string(e.Kind))
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func dotShape(kind entities.NodeKind) string {
	switch kind {
	case entities.NodeUnion:
		return "doublecircle"
	case entities.NodePartner, entities.NodeMember:
		return "ellipse"
	case entities.NodeWallet:
		return "cylinder"
	default:
		return "box"
	}
}

func newGraphPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the union graph to Neo4j",
		Long:  "Replaces the union's projection in Neo4j with the current graph. Requires neo4j.enabled in config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				if !d.Config.Neo4j.Enabled {
					return errors.New("graph publication is disabled (set neo4j.enabled in .uniao/config.yaml)")
				}

				result, err := d.Graph.HandlePublish(ctx, d.Session)
				if err != nil {
					return err
				}

				fmt.Printf("Published %d nodes and %d edges\n", len(result.Graph.Nodes), len(result.Graph.Edges))
				if result.CountsVerified {
					fmt.Printf("Neo4j now holds %d nodes and %d edges for this union\n", result.StoredNodes, result.StoredEdges)
				}
				return nil
			})
		},
	}
}

func newGraphPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the Neo4j connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withInternalDeps(ctx, func(d *internalDeps) error {
				if d.sink == nil {
					return errors.New("graph publication is disabled (set neo4j.enabled in .uniao/config.yaml)")
				}
				if err := d.sink.Ping(ctx); err != nil {
					return fmt.Errorf("neo4j unreachable: %w", err)
				}
				fmt.Printf("Neo4j reachable at %s\n", d.Config.Neo4j.URI)
				return nil
			})
		},
	}
}
