package driver

import (
	"context"
	"errors"
	"time"

	"bracefix/internal/bracket"
	"bracefix/internal/cache"
	"bracefix/internal/config"
	"bracefix/internal/oracle"
	"bracefix/internal/repair"
	"bracefix/internal/trace"
)

// Outcome is one repair as seen by the CLI.
type Outcome struct {
	Result  *repair.Result
	Cached  bool
	Elapsed time.Duration
}

// Repairer binds a search configuration, the name of its oracle and an
// optional disk cache. Outcomes are also memoized in memory for the
// lifetime of the Repairer. It is safe for concurrent use.
type Repairer struct {
	cfg    repair.Config
	oracle string
	cache  *cache.DiskCache
	memo   *MemoCache
}

// NewRepairer wraps cfg. oracleName is only used as part of the cache
// key, so callers with a custom validator pass any stable name.
func NewRepairer(cfg repair.Config, oracleName string, c *cache.DiskCache) *Repairer {
	if cfg.Pairs.Len() == 0 {
		cfg.Pairs = bracket.DefaultPairs()
	}
	return &Repairer{cfg: cfg, oracle: oracleName, cache: c, memo: NewMemoCache(64)}
}

// RepairerFromConfig looks up the configured oracle and builds a Repairer.
func RepairerFromConfig(cfg config.Config, c *cache.DiskCache) (*Repairer, error) {
	pairs, err := cfg.PairSet()
	if err != nil {
		return nil, err
	}
	v, err := oracle.Lookup(cfg.Repair.Oracle, pairs)
	if err != nil {
		return nil, err
	}
	rc, err := cfg.RepairConfig(v)
	if err != nil {
		return nil, err
	}
	return NewRepairer(rc, cfg.Repair.Oracle, c), nil
}

// Config returns a copy of the search configuration.
func (r *Repairer) Config() repair.Config { return r.cfg }

// Pairs returns the bracket set in use.
func (r *Repairer) Pairs() bracket.PairSet { return r.cfg.Pairs }

func (r *Repairer) key(expr string) cache.Digest {
	return cache.Key(cache.KeyParts{
		Expr:     expr,
		Pairs:    r.cfg.Pairs.String(),
		Oracle:   r.oracle,
		MinDepth: r.cfg.MinDepth,
		MaxDepth: r.cfg.MaxDepth,
		Staged:   r.cfg.Staged,
	})
}

// Repair fixes expr, consulting the memo and the disk cache first.
// Unrecoverable outcomes are cached as well and come back as
// *repair.SyntaxUnrecoverableError.
func (r *Repairer) Repair(ctx context.Context, expr string) (*Outcome, error) {
	start := time.Now()
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	key := r.key(expr)
	if entry, ok := r.memo.Get(key); ok {
		trace.Point(tracer, trace.ScopeDriver, "memo-hit", parent, key.String())
		res, err := entry.Outcome()
		return &Outcome{Result: res, Cached: true, Elapsed: time.Since(start)}, err
	}
	if r.cache != nil {
		entry, ok, err := r.cache.Get(key)
		if err != nil {
			// битая запись: считаем промахом и перезапишем
			trace.Point(tracer, trace.ScopeDriver, "cache-error", parent, err.Error())
		}
		if ok {
			trace.Point(tracer, trace.ScopeDriver, "cache-hit", parent, key.String())
			r.memo.Put(key, entry)
			res, err := entry.Outcome()
			return &Outcome{Result: res, Cached: true, Elapsed: time.Since(start)}, err
		}
	}

	res, err := repair.Repair(ctx, expr, r.cfg)
	outcome := &Outcome{Result: res, Elapsed: time.Since(start)}
	var entry *cache.Entry
	switch {
	case err == nil:
		entry = cache.EntryFor(res)
	case errors.Is(err, repair.ErrUnrecoverable):
		entry = cache.EntryForFailure(expr, r.cfg.MaxDepth)
	}
	if entry != nil {
		r.memo.Put(key, entry)
		if putErr := r.cache.Put(key, entry); putErr != nil {
			trace.Point(tracer, trace.ScopeDriver, "cache-error", parent, putErr.Error())
		}
	}
	return outcome, err
}
