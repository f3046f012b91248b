// Package loopcall detects store and graph calls inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects whole-union loads and graph round trips inside loops.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects union loads and graph round trips inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// loopMethods maps method names to the hint reported when they run per iteration.
var loopMethods = map[string]string{
	// Store: each call reads the whole union
	"FindUnion": "load the union once before the loop",
	"LoadUnion": "load the union once before the loop",
	// Registry: each call reloads the members and the asset
	"AddTransaction": "load the union and asset once and record through the loaded asset",
	// GraphSink: each call is a Neo4j round trip
	"Publish": "publish the graph once after the loop",
	"Counts":  "count once after the loop",
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Closures run later; their calls are not per iteration.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			if hint, ok := loopMethods[sel.Sel.Name]; ok {
				pass.Reportf(call.Pos(), "%s called inside loop - %s", sel.Sel.Name, hint)
			}

			return true
		})
	})

	return nil, nil
}
