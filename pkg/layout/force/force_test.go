package force

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/schemalayout/pkg/graph"
)

func sampleNodes() []graph.NodePosition {
	return []graph.NodePosition{
		{ID: "User", Width: 264, Height: 120},
		{ID: "Post", Width: 264, Height: 144},
		{ID: "Tag", Width: 264, Height: 120},
		{ID: "Comment", Width: 264, Height: 168},
	}
}

func sampleEdges() []Edge {
	return []Edge{{"User", "Post"}, {"Post", "Tag"}, {"Comment", "Post"}, {"Comment", "User"}, {"User", "User"}}
}

func assertNoOverlap(t *testing.T, rects []graph.NodePosition, gap float64) {
	t.Helper()
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j], gap-1e-3) {
				t.Errorf("%s overlaps %s: %+v %+v", rects[i].ID, rects[j].ID, rects[i], rects[j])
			}
		}
	}
}

func TestDeoverlap(t *testing.T) {
	tests := []struct {
		name  string
		rects []graph.NodePosition
		gap   float64
	}{
		{
			name: "identical",
			rects: []graph.NodePosition{
				{ID: "a", Width: 100, Height: 50},
				{ID: "b", Width: 100, Height: 50},
			},
			gap: 48,
		},
		{
			name: "chain",
			rects: []graph.NodePosition{
				{ID: "a", X: 0, Y: 0, Width: 264, Height: 120},
				{ID: "b", X: 100, Y: 10, Width: 264, Height: 120},
				{ID: "c", X: 200, Y: -20, Width: 264, Height: 120},
				{ID: "d", X: 150, Y: 60, Width: 264, Height: 120},
				{ID: "e", X: 50, Y: 200, Width: 264, Height: 120},
			},
			gap: 48,
		},
		{
			name: "squeezed between",
			rects: []graph.NodePosition{
				{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
				{ID: "b", X: 130, Y: 0, Width: 100, Height: 100},
				{ID: "c", X: 90, Y: 0, Width: 40, Height: 100},
			},
			gap: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deoverlap(tt.rects, tt.gap)
			if len(got) != len(tt.rects) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.rects))
			}
			assertNoOverlap(t, got, tt.gap)
			if got[0] != tt.rects[0] {
				t.Errorf("first rect moved: %+v", got[0])
			}
			for i := range got {
				if got[i].Width != tt.rects[i].Width || got[i].Height != tt.rects[i].Height {
					t.Errorf("%s changed size", got[i].ID)
				}
			}
		})
	}
}

func TestDeoverlapPushesAlongDominantAxis(t *testing.T) {
	got := Deoverlap([]graph.NodePosition{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", X: 50, Y: 10, Width: 100, Height: 100},
	}, 20)
	if got[1].X != 120 || got[1].Y != 10 {
		t.Errorf("b = (%v,%v), want (120,10)", got[1].X, got[1].Y)
	}
}

func TestDeoverlapAfter(t *testing.T) {
	rects := []graph.NodePosition{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "b", X: 50, Y: 0, Width: 100, Height: 100},
		{ID: "c", X: 60, Y: 0, Width: 100, Height: 100},
	}
	got := DeoverlapAfter(rects, 2, 20)
	if got[0] != rects[0] || got[1] != rects[1] {
		t.Errorf("fixed rects moved: %+v %+v", got[0], got[1])
	}
	if got[2].X != 170 || got[2].Y != 0 {
		t.Errorf("c = (%v,%v), want (170,0)", got[2].X, got[2].Y)
	}
	assertNoOverlap(t, got[1:], 20)

	if all := DeoverlapAfter(rects, 5, 20); all[2] != rects[2] {
		t.Errorf("fixed count beyond len moved %+v", all[2])
	}
}

func TestSnapToGrid(t *testing.T) {
	got := SnapToGrid([]graph.NodePosition{{ID: "a", X: 13, Y: -37, Width: 264, Height: 120}}, 24)
	if got[0].X != 24 || got[0].Y != -48 || got[0].Width != 264 {
		t.Errorf("SnapToGrid() = %+v", got[0])
	}
}

func TestSnapKeepsSeparation(t *testing.T) {
	rects := Deoverlap([]graph.NodePosition{
		{ID: "a", X: 5, Y: 7, Width: 264, Height: 120},
		{ID: "b", X: 40, Y: 30, Width: 264, Height: 120},
		{ID: "c", X: -30, Y: 50, Width: 192, Height: 96},
	}, 48)
	assertNoOverlap(t, SnapToGrid(rects, 24), 0)
}

func TestEadesPlacer(t *testing.T) {
	p := &EadesPlacer{Seed: 7}
	first, err := p.Place(context.Background(), sampleNodes(), sampleEdges())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("len = %d, want 4", len(first))
	}
	for i, n := range first {
		if n.ID != sampleNodes()[i].ID || n.Width != sampleNodes()[i].Width {
			t.Errorf("node %d = %+v, order or size changed", i, n)
		}
		if math.IsNaN(n.X) || math.IsInf(n.X, 0) || math.IsNaN(n.Y) || math.IsInf(n.Y, 0) {
			t.Errorf("node %s has non-finite position", n.ID)
		}
	}

	again, _ := (&EadesPlacer{Seed: 7}).Place(context.Background(), sampleNodes(), sampleEdges())
	for i := range first {
		if first[i] != again[i] {
			t.Errorf("same seed gave different positions for %s: %+v vs %+v", first[i].ID, first[i], again[i])
		}
	}
}

func TestEadesPlacerEmpty(t *testing.T) {
	got, err := (&EadesPlacer{}).Place(context.Background(), nil, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Place(nil) = %v, %v", got, err)
	}
}

func TestEadesPlacerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&EadesPlacer{}).Place(ctx, sampleNodes(), sampleEdges()); err == nil {
		t.Error("expected context error")
	}
}

func TestToDOT(t *testing.T) {
	nodes := []graph.NodePosition{
		{ID: "User", Width: 144, Height: 72},
		{ID: "Post", X: 200, Y: 100, Width: 72, Height: 72},
	}
	dot := ToDOT(nodes, []Edge{{"User", "Post"}, {"User", "Missing"}}, 3)

	for _, want := range []string{
		"layout=fdp;",
		"start=3;",
		"n0 [width=2.0000, height=1.0000];",
		`n1 [width=1.0000, height=1.0000, pos="236.00,-136.00"];`,
		"n0 -- n1;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "Missing") {
		t.Error("edges to unknown nodes should be dropped")
	}
}

func TestParsePositions(t *testing.T) {
	out := []byte(`graph G {
	graph [bb="0,0,300,200", layout=fdp];
	node [fixedsize=true, label="", shape=box];
	n0	[height=1,
		pos="72,150",
		width=2];
	n1	[height=1, pos="250.5,-3.25e+01", width=1];
	n0 -- n1	[pos="100,140 200,40"];
}`)
	got, err := parsePositions(out)
	if err != nil {
		t.Fatalf("parsePositions() error: %v", err)
	}
	if got[0] != [2]float64{72, 150} || got[1] != [2]float64{250.5, -32.5} {
		t.Errorf("parsePositions() = %v", got)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestGraphvizPlacer(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the graphviz engine")
	}
	got, err := (&GraphvizPlacer{Seed: 1}).Place(context.Background(), sampleNodes(), sampleEdges())
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, n := range got {
		if n.ID != sampleNodes()[i].ID || n.Height != sampleNodes()[i].Height {
			t.Errorf("node %d = %+v, order or size changed", i, n)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", PlacerEades, PlacerGraphviz} {
		if _, err := New(name, 1); err != nil {
			t.Errorf("New(%q) error: %v", name, err)
		}
	}
	if _, err := New("dot", 1); err == nil {
		t.Error("New(dot) should fail")
	}
}
