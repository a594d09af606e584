// Package committer applies batches of Spanner mutations atomically.
//
// Repositories never write. They return mutations, usecases collect them in a
// CommitPlan, and the Committer applies the plan in one transaction:
//
//	plan := committer.NewPlan()
//	plan.AddMultiple(productMuts)
//	plan.Add(chatWatchRepo.AdvanceCursorMut(chatID, cursor))
//	return comm.Apply(ctx, plan)
//
// When the mutations depend on what is currently stored (insert vs update, a
// cursor precondition), use ApplyPlanned: the builder runs inside a read-write
// transaction and its plan is buffered into that same transaction, so the
// reads and the writes commit or abort together.
package committer

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
)

// CommitPlan collects mutations from multiple sources and applies them atomically.
type CommitPlan struct {
	mutations []*spanner.Mutation
}

// NewPlan creates a new empty CommitPlan.
func NewPlan() *CommitPlan {
	return &CommitPlan{
		mutations: make([]*spanner.Mutation, 0),
	}
}

// Add adds a mutation to the plan.
// Nil mutations are silently ignored for convenience.
func (cp *CommitPlan) Add(mut *spanner.Mutation) {
	if mut != nil {
		cp.mutations = append(cp.mutations, mut)
	}
}

// AddMultiple adds multiple mutations to the plan.
func (cp *CommitPlan) AddMultiple(muts []*spanner.Mutation) {
	for _, mut := range muts {
		cp.Add(mut)
	}
}

// Mutations returns all collected mutations.
func (cp *CommitPlan) Mutations() []*spanner.Mutation {
	return cp.mutations
}

// IsEmpty returns true if the plan has no mutations.
func (cp *CommitPlan) IsEmpty() bool {
	return len(cp.mutations) == 0
}

// Count returns the number of mutations in the plan.
func (cp *CommitPlan) Count() int {
	return len(cp.mutations)
}

// Committer provides transaction execution for CommitPlans.
type Committer struct {
	client *spanner.Client
}

// NewCommitter creates a new Committer.
func NewCommitter(client *spanner.Client) *Committer {
	return &Committer{client: client}
}

// Apply executes the CommitPlan atomically within a Spanner transaction.
func (c *Committer) Apply(ctx context.Context, plan *CommitPlan) error {
	if plan.IsEmpty() {
		return nil // Nothing to commit
	}

	_, err := c.client.Apply(ctx, plan.Mutations())
	if err != nil {
		return fmt.Errorf("failed to apply commit plan: %w", err)
	}

	return nil
}

// ApplyWithReadWriteTransaction runs fn in a read-write transaction.
// fn may be retried by the client when the transaction aborts.
func (c *Committer) ApplyWithReadWriteTransaction(ctx context.Context, fn func(context.Context, *spanner.ReadWriteTransaction) error) error {
	_, err := c.client.ReadWriteTransaction(ctx, fn)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// ApplyPlanned builds a plan from reads made inside a read-write transaction
// and buffers it into that transaction. An error from build aborts the
// transaction and is returned unwrapped so callers can match sentinels.
func (c *Committer) ApplyPlanned(ctx context.Context, build func(context.Context, *spanner.ReadWriteTransaction) (*CommitPlan, error)) error {
	var buildErr error
	_, err := c.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		buildErr = nil
		plan, err := build(ctx, txn)
		if err != nil {
			buildErr = err
			return err
		}
		if plan == nil || plan.IsEmpty() {
			return nil
		}
		return txn.BufferWrite(plan.Mutations())
	})
	if buildErr != nil {
		return buildErr
	}
	if err != nil {
		return fmt.Errorf("failed to apply planned commit: %w", err)
	}
	return nil
}
