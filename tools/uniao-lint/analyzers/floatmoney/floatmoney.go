// Package floatmoney detects decimal amounts converted to float64.
package floatmoney

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const decimalPkg = "github.com/shopspring/decimal"

// Analyzer reports conversions of shopspring decimals to float64.
var Analyzer = &analysis.Analyzer{
	Name:     "floatmoney",
	Doc:      "detects decimal amounts and quantities converted to float64",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// lossyMethods are Decimal methods that return a float64.
var lossyMethods = map[string]bool{
	"Float64":        true,
	"InexactFloat64": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !lossyMethods[sel.Sel.Name] {
			return
		}

		if !isDecimal(pass.TypesInfo.TypeOf(sel.X)) {
			return
		}

		pass.Reportf(call.Pos(), "decimal converted with %s - keep amounts in decimal.Decimal", sel.Sel.Name)
	})

	return nil, nil
}

func isDecimal(t types.Type) bool {
	if t == nil {
		return false
	}
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == decimalPkg && obj.Name() == "Decimal"
}
