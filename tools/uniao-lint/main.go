// uniao-lint is a custom static analyzer for uniao persistence and money handling.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/uniao/tools/uniao-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
