// Package optim sweeps configuration parameters over a grid and ranks the
// resulting runs by one of their metrics.
package optim

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/san-kum/twobody/internal/config"
	"github.com/san-kum/twobody/internal/dynamo"
	"github.com/san-kum/twobody/internal/sim"
)

// Parameters a grid can vary.
const (
	ParamTimeStep = "dt"
	ParamAlpha    = "alpha"
	ParamG        = "g"
)

var setters = map[string]func(*config.Config, float64){
	ParamTimeStep: func(c *config.Config, v float64) { c.TimeStep = v },
	ParamAlpha:    func(c *config.Config, v float64) { c.Alpha = v },
	ParamG:        func(c *config.Config, v float64) { c.GravitationalConstant = v },
}

// Params lists the parameter names a grid accepts.
func Params() []string {
	names := make([]string, 0, len(setters))
	for n := range setters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Point is one evaluated grid point.
type Point struct {
	Params  map[string]float64
	Steps   int
	Metrics map[string]float64
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters, %d ranges", dynamo.ErrDimensionMismatch, len(params), len(ranges))
	}
	for i, p := range params {
		if _, ok := setters[p]; !ok {
			return nil, &dynamo.ConfigError{Field: p, Reason: fmt.Sprintf("not a sweep parameter (want one of %v)", Params())}
		}
		if len(ranges[i]) == 0 {
			return nil, &dynamo.ConfigError{Field: p, Reason: "empty range"}
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points enumerates the grid in row-major order, last parameter fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[g.paramNames[depth]] = val
		g.enumerate(depth+1, next, out)
	}
}

// Run evaluates every grid point concurrently. Each point starts from a
// copy of base with the point's parameters applied and integrates
// duration simulated seconds. A point whose configuration is invalid or
// whose run fails carries the error in Err; the other points still run.
func (g *GridSearch) Run(ctx context.Context, base *config.Config, duration float64) []Point {
	points := g.Points()
	results := make([]Point, len(points))

	var wg sync.WaitGroup
	for i, params := range points {
		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			results[idx] = evaluate(ctx, base, params, duration)
		}(i, params)
	}
	wg.Wait()
	return results
}

func evaluate(ctx context.Context, base *config.Config, params map[string]float64, duration float64) Point {
	p := Point{Params: params}

	cfg := *base
	for name, v := range params {
		setters[name](&cfg, v)
	}
	e, err := sim.New(&cfg)
	if err != nil {
		p.Err = err
		return p
	}

	p.Steps = max(1, int(math.Round(duration/cfg.TimeStep)))
	if err := e.RunSteps(ctx, p.Steps); err != nil {
		p.Err = err
		return p
	}
	p.Metrics = e.Metrics()
	return p
}

// Best returns the successful point with the smallest finite value of
// metric. ok is false when no point qualifies.
func Best(points []Point, metric string) (best Point, ok bool) {
	ranked := Rank(points, metric)
	if len(ranked) == 0 {
		return Point{}, false
	}
	return ranked[0], true
}

// Rank returns the successful points with a finite value of metric,
// ascending by that value. Ties keep grid order.
func Rank(points []Point, metric string) []Point {
	var out []Point
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		v, ok := p.Metrics[metric]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Point) int {
		va, vb := a.Metrics[metric], b.Metrics[metric]
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	})
	return out
}
