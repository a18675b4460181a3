package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/schemalayout/pkg/cache"
	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout/force"
	"github.com/matzehuels/schemalayout/pkg/schema"
)

const shopYAML = `
objects:
  - name: Customer
    links:
      - name: orders
        targetNames: [Order]
  - name: Order
    links:
      - name: items
        targetNames: [Product]
  - name: Product
`

func writeSchema(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func shopGraph(t *testing.T) *graph.Graph {
	t.Helper()
	s, err := schema.Read(bytes.NewReader([]byte(shopYAML)), schema.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	g, err := schema.Build(s, schema.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.GridUnit != graph.DefaultGridUnit {
		t.Errorf("GridUnit = %g", opts.GridUnit)
	}
	if opts.MarginUnits != 4 || opts.MaxExpansions != 10000 {
		t.Errorf("MarginUnits, MaxExpansions = %d, %d", opts.MarginUnits, opts.MaxExpansions)
	}
	if opts.Placer != force.PlacerEades || opts.Seed != DefaultSeed {
		t.Errorf("Placer, Seed = %q, %d", opts.Placer, opts.Seed)
	}
	if opts.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %s", opts.CacheTTL)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if !opts.IsAligned() {
		t.Error("alignment should default to on")
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative grid unit", Options{GridUnit: -1}},
		{"negative margin", Options{MarginUnits: -2}},
		{"negative expansions", Options{MaxExpansions: -1}},
		{"negative updates", Options{EadesUpdates: -5}},
		{"negative ttl", Options{CacheTTL: -time.Second}},
		{"unknown placer", Options{Placer: "neato"}},
		{"unknown format", Options{Format: "xml"}},
		{"bad redis url", Options{RedisURL: "http://localhost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, errors.ErrCodeInvalidOption) {
				t.Errorf("err = %v, want INVALID_OPTION", err)
			}
		})
	}
}

func TestIsAligned(t *testing.T) {
	off := false
	on := true
	tests := []struct {
		aligned *bool
		want    bool
	}{
		{nil, true},
		{&on, true},
		{&off, false},
	}
	for _, tt := range tests {
		o := Options{Aligned: tt.aligned}
		if got := o.IsAligned(); got != tt.want {
			t.Errorf("IsAligned(%v) = %v, want %v", tt.aligned, got, tt.want)
		}
		if got := o.LayoutOptions().Aligned; got != tt.want {
			t.Errorf("LayoutOptions().Aligned = %v, want %v", got, tt.want)
		}
	}
}

func TestNewPlacer(t *testing.T) {
	opts := Options{EadesUpdates: 25, Seed: 7}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	p, err := opts.NewPlacer()
	if err != nil {
		t.Fatal(err)
	}
	eades, ok := p.(*force.EadesPlacer)
	if !ok {
		t.Fatalf("placer = %T, want *force.EadesPlacer", p)
	}
	if eades.Updates != 25 || eades.Seed != 7 {
		t.Errorf("Updates, Seed = %d, %d", eades.Updates, eades.Seed)
	}

	opts.Placer = force.PlacerGraphviz
	p, err = opts.NewPlacer()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*force.GraphvizPlacer); !ok {
		t.Errorf("placer = %T, want *force.GraphvizPlacer", p)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeSchema(t, "schemalayout.toml", `
grid_unit = 12
margin_units = 6
aligned = false
placer = "fdp"
seed = 9
cache_ttl = "2h"
include = ["Customer", "Order"]
`)
	opts, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.GridUnit != 12 || opts.MarginUnits != 6 || opts.Seed != 9 {
		t.Errorf("GridUnit, MarginUnits, Seed = %g, %d, %d", opts.GridUnit, opts.MarginUnits, opts.Seed)
	}
	if opts.IsAligned() {
		t.Error("aligned = false was not applied")
	}
	if opts.Placer != force.PlacerGraphviz {
		t.Errorf("Placer = %q", opts.Placer)
	}
	if opts.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL = %s", opts.CacheTTL)
	}
	if len(opts.Include) != 2 || opts.Include[1] != "Order" {
		t.Errorf("Include = %v", opts.Include)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("loaded config does not validate: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	unknown := writeSchema(t, "unknown.toml", "grid_size = 12\n")
	if _, err := LoadConfig(unknown); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("unknown key: err = %v, want INVALID_OPTION", err)
	}

	broken := writeSchema(t, "broken.toml", "grid_unit = \n")
	if _, err := LoadConfig(broken); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("syntax error: err = %v, want INVALID_OPTION", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := LoadConfig(missing); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestParse(t *testing.T) {
	path := writeSchema(t, "shop.yaml", shopYAML)

	g, err := Parse(context.Background(), Options{Input: path})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(g.ObjectNodes()); got != 3 {
		t.Errorf("objects = %d, want 3", got)
	}

	g, err = Parse(context.Background(), Options{Input: path, Include: []string{"Customer", "Order"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Node("Product"); ok {
		t.Error("Include should drop Product")
	}

	// An explicit format overrides the extension.
	txt := writeSchema(t, "shop.txt", shopYAML)
	if _, err := Parse(context.Background(), Options{Input: txt, Format: schema.FormatYAML}); err != nil {
		t.Errorf("explicit format: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"empty input", "", errors.ErrCodeInvalidInput},
		{"control character", "shop\x00.yaml", errors.ErrCodeInvalidPath},
		{"missing file", filepath.Join(t.TempDir(), "none.yaml"), errors.ErrCodeFileNotFound},
		{"unknown extension", writeSchema(t, "shop.txt", shopYAML), errors.ErrCodeUnsupported},
		{"bad schema", writeSchema(t, "bad.json", "{"), errors.ErrCodeInvalidSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), Options{Input: tt.input})
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCaches(t *testing.T) {
	path := writeSchema(t, "shop.yaml", shopYAML)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()
	ctx := context.Background()

	first, err := runner.Execute(ctx, Options{Input: path})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.PlaceHit || first.CacheInfo.RouteHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}
	if first.Stats.NodeCount != 3 || first.Stats.LinkCount != 2 {
		t.Errorf("Stats = %+v", first.Stats)
	}
	if len(first.Positions) != 3 {
		t.Errorf("positions = %d, want 3", len(first.Positions))
	}
	if first.GraphHash == "" {
		t.Error("GraphHash is empty")
	}

	second, err := runner.Execute(ctx, Options{Input: path})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.PlaceHit || !second.CacheInfo.RouteHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if mustJSON(t, second.Positions) != mustJSON(t, first.Positions) {
		t.Error("cached positions differ")
	}
	if mustJSON(t, second.Layout) != mustJSON(t, first.Layout) {
		t.Error("cached routes differ")
	}

	refreshed, err := runner.Execute(ctx, Options{Input: path, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.PlaceHit || refreshed.CacheInfo.RouteHit {
		t.Errorf("refresh hit the cache: %+v", refreshed.CacheInfo)
	}

	// Different routing options use a different key.
	unaligned := false
	other, err := runner.Execute(ctx, Options{Input: path, Aligned: &unaligned})
	if err != nil {
		t.Fatal(err)
	}
	if !other.CacheInfo.PlaceHit || other.CacheInfo.RouteHit {
		t.Errorf("aligned=false: %+v, want place hit and route miss", other.CacheInfo)
	}
}

func TestExecuteErrors(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("no input: err = %v", err)
	}
	if _, err := runner.Execute(ctx, Options{Input: "x.yaml", Placer: "dot"}); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("bad placer: err = %v", err)
	}
}

func TestRouteLinksDeterministic(t *testing.T) {
	g := shopGraph(t)
	positions := []graph.NodePosition{
		{ID: "Customer", X: 0, Y: 0, Width: 264, Height: 120},
		{ID: "Order", X: 528, Y: 0, Width: 264, Height: 120},
		{ID: "Product", X: 528, Y: 336, Width: 264, Height: 120},
	}
	runner := NewRunner(nil, nil, nil)
	ctx := context.Background()

	a, hit, err := runner.RouteLinks(ctx, g, positions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("NullCache reported a hit")
	}
	b, _, err := runner.RouteLinks(ctx, g, positions, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustJSON(t, a) != mustJSON(t, b) {
		t.Error("routing the same input twice gave different results")
	}
	if len(a.Routes)+len(a.Errors) == 0 {
		t.Error("no routes and no failures")
	}
}

func TestPlaceObjectsKeepsSizes(t *testing.T) {
	g := shopGraph(t)
	runner := NewRunner(nil, nil, nil)

	positions, _, err := runner.PlaceObjects(context.Background(), g, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range positions {
		n, ok := g.Node(p.ID)
		if !ok {
			t.Fatalf("unknown node %s", p.ID)
		}
		if p.Width != n.Width || p.Height != n.Height {
			t.Errorf("%s size = %gx%g, want %gx%g", p.ID, p.Width, p.Height, n.Width, n.Height)
		}
	}
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			if positions[i].Overlaps(positions[j], 0) {
				t.Errorf("%s overlaps %s", positions[i].ID, positions[j].ID)
			}
		}
	}
}

func TestFocus(t *testing.T) {
	g := shopGraph(t)
	runner := NewRunner(nil, nil, nil)

	res, err := runner.Focus(context.Background(), g, "Order", Options{})
	if err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if res.Positions[0].ID != "Order" {
		t.Errorf("first position = %s, want the focus", res.Positions[0].ID)
	}
	if _, ok := res.Graph.Node("Customer"); ok {
		t.Error("incoming neighbours should not be in the focused graph")
	}
	if _, ok := res.Graph.Node("Product"); !ok {
		t.Error("outgoing target missing from the focused graph")
	}
	if _, ok := res.Graph.Link("Order.items"); !ok {
		t.Error("focused link missing")
	}

	if _, err := runner.Focus(context.Background(), g, "Nope", Options{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown focus: err = %v, want NOT_FOUND", err)
	}
}

func TestResultOutput(t *testing.T) {
	g := shopGraph(t)
	res := &Result{
		Graph:     g,
		Positions: []graph.NodePosition{{ID: "Customer", Width: 264, Height: 120}},
	}
	res.Layout.LinkNodePositions = []graph.NodePosition{{ID: "Order.items.junction"}}

	out := res.Output()
	if len(out.Positions) != 2 || out.Positions[1].ID != "Order.items.junction" {
		t.Errorf("Positions = %+v", out.Positions)
	}
	if len(out.Nodes) != g.NodeCount() {
		t.Errorf("Nodes = %d, want %d", len(out.Nodes), g.NodeCount())
	}
}

func TestMerge(t *testing.T) {
	off := false
	base := Options{GridUnit: 12, Placer: force.PlacerGraphviz, Seed: 3, Include: []string{"A"}}
	if err := base.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	got := base.Merge(Options{Seed: 8, Aligned: &off, Refresh: true})
	if got.GridUnit != 12 || got.Placer != force.PlacerGraphviz {
		t.Errorf("unset fields changed: %+v", got)
	}
	if got.Seed != 8 || got.IsAligned() || !got.Refresh {
		t.Errorf("overrides not applied: %+v", got)
	}
	if len(got.Include) != 1 {
		t.Errorf("Include = %v", got.Include)
	}
	if got.validated {
		t.Error("merged options should be validated again")
	}
}

func TestExamples(t *testing.T) {
	base, err := LoadConfig(filepath.Join("..", "..", "examples", "schemalayout.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	files, err := filepath.Glob(filepath.Join("..", "..", "examples", "schemas", "*"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no example schemas: %v", err)
	}
	runner := NewRunner(nil, nil, nil)
	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			opts := base
			opts.Input = path
			result, err := runner.Execute(context.Background(), opts)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got, want := len(result.Positions), len(result.Graph.ObjectNodes()); got != want {
				t.Errorf("placed %d objects, want %d", got, want)
			}
			if len(result.Layout.Routes) == 0 {
				t.Error("no routes")
			}
		})
	}
}
