package search

import (
	"strings"
	"testing"
)

type cell struct{ x, y int }

type dirKey struct {
	c      cell
	dx, dy int
}

// obstacleMap parses an ASCII map. '#' is blocked, 'S' marks starts and 'E'
// marks ends; every other rune is open.
type obstacleMap struct {
	w, h    int
	blocked map[cell]bool
	starts  []cell
	ends    map[cell]bool
}

func parseObstacleMap(s string) obstacleMap {
	m := obstacleMap{blocked: map[cell]bool{}, ends: map[cell]bool{}}
	lines := strings.Split(strings.TrimSpace(s), "\n")
	m.h = len(lines)
	for y, line := range lines {
		line = strings.TrimSpace(line)
		m.w = max(m.w, len(line))
		for x, r := range line {
			c := cell{x, y}
			switch r {
			case '#':
				m.blocked[c] = true
			case 'S':
				m.starts = append(m.starts, c)
			case 'E':
				m.ends[c] = true
			}
		}
	}
	return m
}

func (m obstacleMap) heuristic(c cell) float64 {
	best := -1
	for e := range m.ends {
		d := abs(c.x-e.x) + abs(c.y-e.y)
		if best < 0 || d < best {
			best = d
		}
	}
	return float64(best)
}

func (m obstacleMap) problem(cornerCost float64) Problem[cell, dirKey] {
	return Problem[cell, dirKey]{
		Starts: m.starts,
		IsEnd:  func(c cell, _ *cell) bool { return m.ends[c] },
		Neighbors: func(c cell, prev *cell) []Neighbor[cell] {
			var out []Neighbor[cell]
			for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				n := cell{c.x + d[0], c.y + d[1]}
				if n.x < 0 || n.y < 0 || n.x >= m.w || n.y >= m.h || m.blocked[n] {
					continue
				}
				if prev != nil && n == *prev {
					continue
				}
				cost := 1.0
				if prev != nil && prev.x != n.x && prev.y != n.y {
					cost += cornerCost
				}
				out = append(out, Neighbor[cell]{Node: n, Cost: cost})
			}
			return out
		},
		Heuristic: m.heuristic,
		Hash: func(c cell, prev *cell) dirKey {
			if prev == nil {
				return dirKey{c: c}
			}
			return dirKey{c: c, dx: c.x - prev.x, dy: c.y - prev.y}
		},
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func corners(path []cell) int {
	n := 0
	for i := 1; i+1 < len(path); i++ {
		if path[i-1].x != path[i+1].x && path[i-1].y != path[i+1].y {
			n++
		}
	}
	return n
}

func TestSearchOpenGridIsManhattanOptimal(t *testing.T) {
	tests := []struct {
		name string
		grid string
		want int
	}{
		{"straight", `
S....E`, 5},
		{"diagonal", `
S.....
......
......
.....E`, 8},
		{"nearest start", `
S.........
..........
.......S.E`, 2},
		{"nearest end", `
E........S
..........
E.........`, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseObstacleMap(tt.grid)
			res := Search(m.problem(0))
			if res.Status != Success {
				t.Fatalf("Status = %v, want %v", res.Status, Success)
			}
			if got := len(res.Path) - 1; got != tt.want {
				t.Errorf("path length = %d, want %d", got, tt.want)
			}
			if res.Cost != float64(tt.want) {
				t.Errorf("Cost = %v, want %v", res.Cost, tt.want)
			}
		})
	}
}

func TestSearchAroundWall(t *testing.T) {
	m := parseObstacleMap(`
......
.####.
S#..#E
.####.
......`)
	res := Search(m.problem(0))
	if res.Status != Success {
		t.Fatalf("Status = %v, want %v", res.Status, Success)
	}
	if got := len(res.Path) - 1; got != 9 {
		t.Errorf("path length = %d, want 9", got)
	}
	for _, c := range res.Path {
		if m.blocked[c] {
			t.Fatalf("path crosses wall at %v", c)
		}
	}
}

func TestSearchNoPath(t *testing.T) {
	m := parseObstacleMap(`
S.....
..###.
..#E#.
..###.`)
	res := Search(m.problem(0))
	if res.Status != NoPath {
		t.Fatalf("Status = %v, want %v", res.Status, NoPath)
	}
	if len(res.Path) == 0 || res.Path[0] != (cell{0, 0}) {
		t.Fatalf("best-effort path should start at the start cell, got %v", res.Path)
	}
	last := res.Path[len(res.Path)-1]
	if m.heuristic(last) != 2 {
		t.Errorf("best node heuristic = %v, want 2", m.heuristic(last))
	}
}

func TestSearchTimeout(t *testing.T) {
	row := "S" + strings.Repeat(".", 60) + "E"
	m := parseObstacleMap(strings.Repeat(row+"\n", 40))
	p := m.problem(0)
	p.Heuristic = func(cell) float64 { return 0 }
	p.MaxExpansions = 25
	res := Search(p)
	if res.Status != Timeout {
		t.Fatalf("Status = %v, want %v", res.Status, Timeout)
	}
	if res.Expanded != 26 {
		t.Errorf("Expanded = %d, want 26", res.Expanded)
	}
	if len(res.Path) == 0 {
		t.Error("timeout should return a best-effort path")
	}
}

func TestSearchDirectionStatesPreferFewerCorners(t *testing.T) {
	m := parseObstacleMap(`
S...
....
....
...E`)
	res := Search(m.problem(1))
	if res.Status != Success {
		t.Fatalf("Status = %v, want %v", res.Status, Success)
	}
	if got := corners(res.Path); got != 1 {
		t.Errorf("corners = %d, want 1 (path %v)", got, res.Path)
	}
	if res.Cost != 7 {
		t.Errorf("Cost = %v, want 7", res.Cost)
	}
}

func TestSearchDeterministic(t *testing.T) {
	m := parseObstacleMap(`
S.......
.##.##..
........
.##.##.E`)
	first := Search(m.problem(1))
	for range 5 {
		again := Search(m.problem(1))
		if len(again.Path) != len(first.Path) {
			t.Fatalf("path lengths differ: %d vs %d", len(again.Path), len(first.Path))
		}
		for i := range again.Path {
			if again.Path[i] != first.Path[i] {
				t.Fatalf("paths differ at %d: %v vs %v", i, again.Path[i], first.Path[i])
			}
		}
	}
}

func TestSearchNoStarts(t *testing.T) {
	res := Search(parseObstacleMap(`...E`).problem(0))
	if res.Status != NoPath || res.Path != nil {
		t.Errorf("got %v %v, want noPath with nil path", res.Status, res.Path)
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{Success: "success", Timeout: "timeout", NoPath: "noPath"} {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
