package focus

import (
	"math"
	"testing"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
)

const w, h = 264, 120

func buildGraph(t *testing.T, objects []string, links []graph.Link) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range objects {
		if err := g.AddNode(graph.Node{ID: id, Kind: graph.NodeObject, Width: w, Height: h}); err != nil {
			t.Fatal(err)
		}
	}
	for _, l := range links {
		if l.LinkNode != "" {
			if err := g.AddNode(graph.Node{ID: l.LinkNode, Kind: graph.NodeVirtual}); err != nil {
				t.Fatal(err)
			}
		}
		if err := g.AddLink(l); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func rel(id, src string, index int, targets ...string) graph.Link {
	return graph.Link{ID: id, Source: src, Targets: targets, Index: index}
}

func byID(positions []graph.NodePosition) map[string]graph.NodePosition {
	return graph.PositionMap(positions)
}

func checkLayout(t *testing.T, got []graph.NodePosition) {
	t.Helper()
	for i := range got {
		if math.Mod(got[i].X, 24) != 0 || math.Mod(got[i].Y, 24) != 0 {
			t.Errorf("%s at (%v,%v) is off the grid", got[i].ID, got[i].X, got[i].Y)
		}
		for j := i + 1; j < len(got); j++ {
			if got[i].Overlaps(got[j], 0) {
				t.Errorf("%s overlaps %s", got[i].ID, got[j].ID)
			}
		}
	}
}

func TestLayoutErrors(t *testing.T) {
	g := buildGraph(t, []string{"A"}, nil)
	_ = g.AddNode(graph.Node{ID: "v", Kind: graph.NodeVirtual})

	if _, err := Layout(g, "missing", 24); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing focus: err = %v, want NOT_FOUND", err)
	}
	if _, err := Layout(g, "v", 24); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("virtual focus: err = %v, want INVALID_INPUT", err)
	}
}

func TestLayoutAlone(t *testing.T) {
	g := buildGraph(t, []string{"A", "B"}, []graph.Link{rel("A.self", "A", 0, "A")})
	got, err := Layout(g, "A", 24)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("Layout() = %v, want only the focus", got)
	}
	if math.Abs(got[0].CenterX()) > 24 || math.Abs(got[0].CenterY()) > 24 {
		t.Errorf("focus center = (%v,%v), want near the origin", got[0].CenterX(), got[0].CenterY())
	}
}

func TestLayoutAlternatesSides(t *testing.T) {
	g := buildGraph(t, []string{"F", "T1", "T2", "T3", "Other"}, []graph.Link{
		rel("F.t1", "F", 0, "T1"),
		rel("F.t2", "F", 1, "T2"),
		rel("F.t3", "F", 2, "T3"),
		rel("F.self", "F", 3, "F"),
		rel("Other.f", "Other", 0, "F"),
	})
	got, err := Layout(g, "F", 24)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want focus and three targets", len(got))
	}
	checkLayout(t, got)

	p := byID(got)
	f := p["F"]
	if p["T1"].CenterX() <= f.CenterX() || p["T3"].CenterX() <= f.CenterX() {
		t.Errorf("T1 and T3 should be right of the focus: %+v %+v", p["T1"], p["T3"])
	}
	if p["T2"].CenterX() >= f.CenterX() {
		t.Errorf("T2 should be left of the focus: %+v", p["T2"])
	}
	if p["T1"].CenterY() >= p["T3"].CenterY() {
		t.Errorf("T1 should be above T3: %+v %+v", p["T1"], p["T3"])
	}
	if _, ok := p["Other"]; ok {
		t.Error("incoming links should not pull nodes into the focus layout")
	}
}

func TestLayoutSharedLinkCluster(t *testing.T) {
	g := buildGraph(t, []string{"F", "T1", "T2"}, []graph.Link{
		rel("F.both", "F", 0, "T1", "T2"),
	})
	got, err := Layout(g, "F", 24)
	if err != nil {
		t.Fatal(err)
	}
	checkLayout(t, got)
	p := byID(got)
	for _, id := range []string{"T1", "T2"} {
		if p[id].CenterX() <= p["F"].CenterX() {
			t.Errorf("%s should share the right slot: %+v", id, p[id])
		}
	}
}

func TestLayoutAuxiliaryRadius(t *testing.T) {
	withAux := rel("F.t1", "F", 0, "T1")
	withAux.LinkNode = "F.t1.props"
	g := buildGraph(t, []string{"F", "T1", "T2"}, []graph.Link{withAux, rel("F.t2", "F", 1, "T2")})

	got, err := Layout(g, "F", 24)
	if err != nil {
		t.Fatal(err)
	}
	p := byID(got)
	if math.Abs(p["T1"].CenterX()) <= math.Abs(p["T2"].CenterX()) {
		t.Errorf("target behind a link node should sit further out: T1=%v T2=%v", p["T1"].CenterX(), p["T2"].CenterX())
	}
}

func TestBuildClustersMergesOverlappingGroups(t *testing.T) {
	g := buildGraph(t, []string{"F", "A", "B", "C", "D"}, []graph.Link{
		rel("l0", "F", 0, "A", "B"),
		rel("l1", "F", 1, "B", "C"),
		rel("l2", "F", 2, "D"),
	})
	focus, _ := g.Node("F")
	clusters := buildClusters(g, focus, g.RelationLinks("F"))

	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2", len(clusters))
	}
	// Groups: {A}:[0] mean 0, {B}:[0,1] mean 0.5, {C}:[1] mean 1, {D}:[2] mean 2.
	want := []string{"A", "B", "C"}
	if len(clusters[0].members) != 3 {
		t.Fatalf("first cluster = %v, want %v", clusters[0].members, want)
	}
	for i := range want {
		if clusters[0].members[i] != want[i] {
			t.Errorf("first cluster = %v, want %v", clusters[0].members, want)
		}
	}
	if len(clusters[1].members) != 1 || clusters[1].members[0] != "D" {
		t.Errorf("second cluster = %v, want [D]", clusters[1].members)
	}
}
