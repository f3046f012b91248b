// Package analyzers provides all custom static analyzers for uniao.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/uniao/tools/uniao-lint/analyzers/floatmoney"
	"github.com/ersonp/uniao/tools/uniao-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
		floatmoney.Analyzer,
	}
}
