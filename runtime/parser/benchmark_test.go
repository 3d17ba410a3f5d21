package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// BenchmarkParserCore measures parsing across scene complexity levels.
func BenchmarkParserCore(b *testing.B) {
	scenarios := map[string]string{
		"empty":   "",
		"prose":   strings.Repeat("The rain falls on ${name}'s cloak.\n", 100),
		"choice":  "*choice\n  #Left\n    *goto left\n  #Right\n    *goto right\n",
		"complex": generateScene(100),
	}

	for name, input := range scenarios {
		b.Run(name, func(b *testing.B) {
			doc := source.NewTextDocument(sceneURI, input)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				Parse(doc, NopCallbacks{})
			}
		})
	}
}

// BenchmarkTelemetryModes measures the overhead of telemetry and debug
// tracing.
func BenchmarkTelemetryModes(b *testing.B) {
	doc := source.NewTextDocument(sceneURI, generateScene(100))
	modes := map[string][]Option{
		"off":    nil,
		"basic":  {WithTelemetryBasic()},
		"timing": {WithTelemetryTiming()},
		"debug":  {WithDebugPaths()},
	}

	for name, opts := range modes {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Parse(doc, NopCallbacks{}, opts...)
			}
		})
	}
}

// BenchmarkParserScaling checks that parse time grows linearly with scene
// length.
func BenchmarkParserScaling(b *testing.B) {
	for _, sections := range []int{10, 100, 1000} {
		doc := source.NewTextDocument(sceneURI, generateScene(sections))
		b.Run(fmt.Sprintf("sections_%d", sections), func(b *testing.B) {
			b.SetBytes(int64(len(doc.Text())))
			for i := 0; i < b.N; i++ {
				Parse(doc, NopCallbacks{})
			}
		})
	}
}

// generateScene builds a scene with n sections, each a label, some prose,
// a nested choice and a stat change.
func generateScene(n int) string {
	var b strings.Builder
	b.WriteString("*temp gold 0\n*temp name \"Ada\"\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "*label section_%d\n", i)
		fmt.Fprintf(&b, "${name} counts @{(gold > %d) many|few} coins.\n", i)
		b.WriteString("*choice\n")
		fmt.Fprintf(&b, "  #Take the coin\n    *set gold +1\n    *goto section_%d\n", i+1)
		b.WriteString("  *selectable_if (gold > 2) #Spend some\n    *set gold -2\n")
		b.WriteString("    *if gold < 0\n      *set gold 0\n    *finish\n")
	}
	fmt.Fprintf(&b, "*label section_%d\n*finish\n", n)
	return b.String()
}
