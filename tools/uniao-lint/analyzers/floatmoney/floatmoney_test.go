package floatmoney_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/ersonp/uniao/tools/uniao-lint/analyzers/floatmoney"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, floatmoney.Analyzer, "a")
}
