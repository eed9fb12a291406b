// Package loader loads resolved units through their disclosure levels
// under a token budget, recording what was loaded in a session cache.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/skill-loader/internal/cache"
	"github.com/rcliao/skill-loader/internal/model"
	"github.com/rcliao/skill-loader/internal/tokens"
)

// DefaultConcurrency bounds parallel file reads when Loader.Concurrency
// is unset.
const DefaultConcurrency = 4

// Catalog looks units up by id. *index.Index satisfies it.
type Catalog interface {
	Lookup(id string) (model.Unit, bool)
}

// Loader loads units level by level.
type Loader struct {
	Index       Catalog
	Counter     tokens.Counter
	Logger      *slog.Logger
	Concurrency int
}

// LevelContent is the text of one level of a unit.
type LevelContent struct {
	Level   model.Level `json:"level"`
	Content string      `json:"content"`
	Tokens  int         `json:"tokens"`
	// Cached is set when the level came from the session cache and was
	// not charged against the budget.
	Cached bool `json:"cached"`
}

// LoadedUnit is a unit loaded up to the target level.
type LoadedUnit struct {
	ID     string         `json:"id"`
	Status model.Status   `json:"status"`
	Levels []LevelContent `json:"levels"`
}

// Result is the outcome of a Load. After a budget stop it holds the
// units loaded before the stop.
type Result struct {
	SessionID string       `json:"session_id"`
	Level     model.Level  `json:"level"`
	Units     []LoadedUnit `json:"units"`
	// Tokens is the cost charged by this load. Cache hits are free.
	Tokens    int      `json:"tokens"`
	Budget    int      `json:"budget,omitempty"`
	Loaded    []string `json:"loaded"`
	Remaining []string `json:"remaining,omitempty"`
}

// Content joins the text of every loaded level, unit by unit.
func (r *Result) Content() string {
	var parts []string
	for _, u := range r.Units {
		for _, l := range u.Levels {
			if strings.TrimSpace(l.Content) != "" {
				parts = append(parts, l.Content)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// BudgetExceeded is returned with a partial Result when the next unit
// would push the charged tokens past the budget.
type BudgetExceeded struct {
	Loaded    []string
	Remaining []string
	Used      int
	Budget    int
}

func (e *BudgetExceeded) Error() string {
	return fmt.Sprintf("budget exceeded: %d of %d tokens used, %d unit(s) not loaded: %s",
		e.Used, e.Budget, len(e.Remaining), strings.Join(e.Remaining, ", "))
}

// plan is the per-unit work of one Load.
type plan struct {
	unit    model.Unit
	highest model.Level
	cached  []LevelContent
	fresh   []LevelContent
	hit     bool
	err     error
}

func (p plan) cost() int {
	n := 0
	for _, l := range p.fresh {
		n += l.Tokens
	}
	return n
}

// declared is the declared cost of the levels p still has to read.
func (p plan) declared(target model.Level) int {
	if p.hit {
		return 0
	}
	n := 0
	for lvl := model.Level(len(p.cached) + 1); lvl <= target; lvl++ {
		n += p.unit.Declared(lvl)
	}
	return n
}

// Load brings every unit of set up to target. Units are charged in set
// order; the first unit that does not fit in budget stops the load and
// it, with every unit after it, is reported as remaining. A budget of
// zero or less is unlimited. Nothing of an unloaded unit is cached, and
// levels are read in batches so units past the stop are not read.
func (l *Loader) Load(ctx context.Context, set model.ResolvedSet, target model.Level, c cache.Cache, budget int) (*Result, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("load: invalid level %d", int(target))
	}
	log := l.logger()

	plans := make([]plan, len(set.IDs))
	for i, id := range set.IDs {
		u, ok := l.Index.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("load: unknown unit %q", id)
		}
		p, err := cachedPlan(ctx, c, u, target)
		if err != nil {
			return nil, err
		}
		if p.hit {
			log.Debug("cache hit", "unit", id, "level", target)
		}
		plans[i] = p
	}

	res := &Result{SessionID: c.SessionID(), Level: target, Budget: budget, Loaded: []string{}}
	for next := 0; next < len(plans); {
		end := window(plans, next, target, res.Tokens, budget, l.concurrency())
		if err := l.readAll(ctx, plans[next:end], target); err != nil {
			return nil, err
		}
		if end == next {
			// the declared cost of plans[next] alone is over budget
			return res, l.stop(res, plans[next:], plans[next].declared(target), budget)
		}
		for i := next; i < end; i++ {
			p := &plans[i]
			if p.err != nil {
				return nil, p.err
			}
			cost := p.cost()
			if budget > 0 && res.Tokens+cost > budget {
				return res, l.stop(res, plans[i:], cost, budget)
			}

			for _, lc := range p.fresh {
				if err := c.Put(ctx, p.unit.ID, lc.Level, cache.Entry{Content: lc.Content, Tokens: lc.Tokens}); err != nil {
					return nil, fmt.Errorf("cache %s %s: %w", p.unit.ID, lc.Level, err)
				}
			}
			res.Tokens += cost
			res.Loaded = append(res.Loaded, p.unit.ID)
			res.Units = append(res.Units, LoadedUnit{
				ID:     p.unit.ID,
				Status: model.StatusFor(max(p.highest, target)),
				Levels: append(p.cached, p.fresh...),
			})
		}
		next = end
	}
	log.Debug("load complete", "units", len(res.Loaded), "tokens", res.Tokens, "level", target)
	return res, nil
}

// stop marks rest as remaining and builds the budget error.
func (l *Loader) stop(res *Result, rest []plan, cost, budget int) *BudgetExceeded {
	for _, q := range rest {
		res.Remaining = append(res.Remaining, q.unit.ID)
	}
	l.logger().Debug("budget stop", "unit", rest[0].unit.ID, "cost", cost, "used", res.Tokens, "budget", budget)
	return &BudgetExceeded{
		Loaded:    append([]string(nil), res.Loaded...),
		Remaining: res.Remaining,
		Used:      res.Tokens,
		Budget:    budget,
	}
}

// window returns the end of the next batch of plans to read, starting at
// next. A batch holds at most n plans and ends before the first plan
// whose declared cost cannot fit, so nothing past a certain budget stop
// is read. Undeclared levels count as zero until read.
func window(plans []plan, next int, target model.Level, used, budget, n int) int {
	end := next
	for end < len(plans) && end-next < n {
		d := plans[end].declared(target)
		if budget > 0 && used+d > budget {
			break
		}
		used += d
		end++
	}
	return end
}

// cachedPlan collects the levels of u already in the cache. Levels above
// the highest contiguous cached level are left for readAll.
func cachedPlan(ctx context.Context, c cache.Cache, u model.Unit, target model.Level) (plan, error) {
	p := plan{unit: u}
	highest, err := c.Highest(ctx, u.ID)
	if err != nil {
		return p, fmt.Errorf("cache lookup %s: %w", u.ID, err)
	}
	for lvl := model.Level1; lvl <= min(highest, target); lvl++ {
		e, ok, err := c.Get(ctx, u.ID, lvl)
		if err != nil {
			return p, fmt.Errorf("cache lookup %s: %w", u.ID, err)
		}
		if !ok {
			break
		}
		p.cached = append(p.cached, LevelContent{Level: lvl, Content: e.Content, Tokens: e.Tokens, Cached: true})
	}
	p.highest = highest
	p.hit = highest >= target
	return p, nil
}

// readAll reads the uncached levels of plans in parallel. A read failure
// is kept on its plan and only surfaces if the walk reaches that unit.
func (l *Loader) readAll(ctx context.Context, plans []plan, target model.Level) error {
	var g errgroup.Group
	g.SetLimit(l.concurrency())
	for i := range plans {
		if plans[i].hit {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := &plans[i]
			for lvl := model.Level(len(p.cached) + 1); lvl <= target; lvl++ {
				text, err := readLevel(p.unit, lvl)
				if err != nil {
					p.err = err
					return nil
				}
				p.fresh = append(p.fresh, LevelContent{Level: lvl, Content: text, Tokens: l.cost(p.unit, lvl, text)})
			}
			return nil
		})
	}
	return g.Wait()
}

// cost is the declared token count of a level, or an estimate of text.
func (l *Loader) cost(u model.Unit, lvl model.Level, text string) int {
	if n := u.Declared(lvl); n > 0 {
		return n
	}
	return tokens.Sum(l.Counter, text)
}

// Status returns how far id has been loaded in the session.
func Status(ctx context.Context, c cache.Cache, id string) (model.Status, error) {
	highest, err := c.Highest(ctx, id)
	if err != nil {
		return model.NotLoaded, err
	}
	return model.StatusFor(highest), nil
}

func (l *Loader) concurrency() int {
	if l.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return l.Concurrency
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
