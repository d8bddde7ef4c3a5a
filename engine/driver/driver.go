// Package driver is the thin, outside-the-core convenience §5 describes:
// "the outer analysis-tree driver may evaluate independent nodes in
// parallel, but each call into the transition engine is self-contained."
// It fans a batch of independent nodes out to engine/transition
// concurrently and joins the results; it owns no policy about how or when
// to grow an analysis tree (that remains the caller's, per §1's
// "outer analysis-tree driver that sequences nodes" being out of scope).
package driver

import (
	"context"

	"github.com/compozy/verse-engine/engine/assert"
	"github.com/compozy/verse-engine/engine/core"
	"github.com/compozy/verse-engine/engine/guard"
	"github.com/compozy/verse-engine/engine/transition"
	"golang.org/x/sync/errgroup"
)

// SimResult is one node's simulation outcome. Err is reported per node
// rather than aborting the batch, since §5 guarantees nodes are
// independent: one node's error must not prevent its siblings from
// completing.
type SimResult struct {
	NodeID      core.ID
	Hits        []transition.AssertHit
	Transitions []transition.SimTransition
	Err         error
}

// VerifyResult is one node's verification outcome, with the same
// per-node error semantics as SimResult.
type VerifyResult struct {
	NodeID      core.ID
	Hits        []transition.AssertHit
	Transitions []transition.VerifyTransition
	Err         error
}

// RunSimulate runs transition.Simulate over every node concurrently,
// sharing astCache and evaluator across goroutines; both are safe for
// concurrent use (ASTCache wraps a hashicorp/golang-lru Cache, and
// CELEvaluator a Ristretto cache, each internally synchronized). Results
// are returned in the same order as nodes regardless of completion order.
func RunSimulate(
	ctx context.Context,
	nodes []*transition.Node,
	astCache *guard.ASTCache,
	evaluator *assert.CELEvaluator,
) []SimResult {
	results := make([]SimResult, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		g.Go(func() error {
			hits, trans, err := transition.Simulate(gctx, n, astCache, evaluator)
			results[i] = SimResult{NodeID: n.ID, Hits: hits, Transitions: trans, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunVerify runs transition.Verify over every node concurrently, sharing
// astCache the same way RunSimulate does.
func RunVerify(ctx context.Context, nodes []*transition.Node, astCache *guard.ASTCache) []VerifyResult {
	results := make([]VerifyResult, len(nodes))
	g := new(errgroup.Group)
	for i, n := range nodes {
		g.Go(func() error {
			hits, trans, err := transition.Verify(n, astCache)
			results[i] = VerifyResult{NodeID: n.ID, Hits: hits, Transitions: trans, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
