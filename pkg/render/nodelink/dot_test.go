package nodelink

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/plan"
	"github.com/matzehuels/shipyard/pkg/sde"
)

type mapNamer map[sde.TypeID]string

func (m mapNamer) Name(id sde.TypeID) string {
	if name, ok := m[id]; ok {
		return name
	}
	return strconv.FormatInt(id, 10)
}

var names = mapNamer{100: "Rifter", 200: "Tritanium", 300: "Hull Plate", 400: "Pyerite"}

func testPlan(t *testing.T, recipes map[sde.TypeID]export.Blueprint, product sde.TypeID, qty int64) *plan.Plan {
	t.Helper()
	p, err := plan.Build(recipes, product, qty)
	if err != nil {
		t.Fatalf("plan.Build() error: %v", err)
	}
	return p
}

func scenario() map[sde.TypeID]export.Blueprint {
	return map[sde.TypeID]export.Blueprint{
		100: {Output: 1, Inputs: []export.Input{{2, 200}, {3, 300}}, Recipe: 500},
		300: {Output: 1, Inputs: []export.Input{{1, 400}}, Recipe: 600},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testPlan(t, scenario(), 100, 1), names, Options{})

	for _, want := range []string{
		"digraph G",
		`"100" [label="1 x Rifter"]`,
		`"300" [label="3 x Hull Plate"]`,
		`"100" -> "200" [label="×2"]`,
		`"100" -> "300" [label="×3"]`,
		`"300" -> "400" [label="×3"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s\n%s", want, dot)
		}
	}
}

func TestToDOT_RawMaterialsDashed(t *testing.T) {
	dot := ToDOT(testPlan(t, scenario(), 100, 1), names, Options{})

	for _, line := range strings.Split(dot, "\n") {
		isRaw := strings.HasPrefix(strings.TrimSpace(line), `"200" [`) || strings.HasPrefix(strings.TrimSpace(line), `"400" [`)
		if isRaw && !strings.Contains(line, "dashed") {
			t.Errorf("raw material not dashed: %s", line)
		}
		if strings.HasPrefix(strings.TrimSpace(line), `"300" [`) && strings.Contains(line, "dashed") {
			t.Errorf("manufactured type drawn dashed: %s", line)
		}
	}
}

func TestToDOT_MergesRepeatedTypes(t *testing.T) {
	recipes := map[sde.TypeID]export.Blueprint{
		1: {Output: 1, Inputs: []export.Input{{1, 2}, {1, 3}}, Recipe: 11},
		3: {Output: 1, Inputs: []export.Input{{4, 2}}, Recipe: 13},
		2: {Output: 10, Inputs: []export.Input{{1, 9}}, Recipe: 12},
	}
	dot := ToDOT(testPlan(t, recipes, 1, 1), mapNamer{}, Options{Detailed: true})

	if n := nodeDecls(dot, 2); n != 1 {
		t.Errorf("type 2 declared %d times, want 1", n)
	}
	if !strings.Contains(dot, `label="5 x 2\nruns: 1\nfrom storage: 4\nsurplus: 9"`) {
		t.Errorf("merged label missing:\n%s", dot)
	}
}

// nodeDecls counts the node statements for id, ignoring edges into it.
func nodeDecls(dot string, id sde.TypeID) int {
	prefix := fmt.Sprintf("  %q [", strconv.FormatInt(id, 10))
	n := 0
	for _, line := range strings.Split(dot, "\n") {
		if strings.HasPrefix(line, prefix) && !strings.Contains(line, "->") {
			n++
		}
	}
	return n
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testPlan(t, scenario(), 100, 2), names, Options{Detailed: true})
	if !strings.Contains(dot, "runs: 2") {
		t.Errorf("detailed output missing runs:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	dot := ToDOT(testPlan(t, scenario(), 100, 1), names, Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Rifter") {
		t.Error("RenderSVG() output is not an SVG of the plan")
	}
}
