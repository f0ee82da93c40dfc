package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/aidmatch/internal/model"
)

// Verifier verifies a single subject
type Verifier interface {
	Verify(ctx context.Context, subject model.Subject) (model.VerificationResult, error)
}

// VerifyJob verifies one subject of a batch
type VerifyJob struct {
	Index    int
	Subject  model.Subject
	Verifier Verifier
	Limiter  *Limiter
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	out := &VerifyResult{Index: j.Index, Subject: j.Subject}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, limiterKey(j.Subject)); err != nil {
			out.Error = fmt.Errorf("rate limit: %w", err)
			return out
		}
	}

	result, err := j.Verifier.Verify(ctx, j.Subject)
	if err != nil {
		out.Error = err
		return out
	}
	out.Result = &result
	return out
}

// VerifyResult is the outcome of one batch entry
type VerifyResult struct {
	Index   int
	Subject model.Subject
	Result  *model.VerificationResult
	Error   error
}

// GetError returns the error from the verification
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many subjects concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. limiter may be nil.
func NewBatchProcessor(verifier Verifier, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessSubjects verifies subjects and returns one result per subject, in
// input order. Entries that never ran because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessSubjects(ctx context.Context, subjects []model.Subject) []*VerifyResult {
	if len(subjects) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, s := range subjects {
			job := &VerifyJob{
				Index:    i,
				Subject:  s,
				Verifier: b.verifier,
				Limiter:  b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	ordered := make([]*VerifyResult, len(subjects))
	for r := range pool.Results() {
		vr := r.(*VerifyResult)
		ordered[vr.Index] = vr
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &VerifyResult{Index: i, Subject: subjects[i], Error: err}
		}
	}
	return ordered
}

// Summary counts batch outcomes by status
type Summary struct {
	Total    int
	Verified int
	Pending  int
	Rejected int
	Failed   int
}

// Summarize tallies batch results
func Summarize(results []*VerifyResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			s.Failed++
			continue
		}
		switch r.Result.Status {
		case model.StatusVerified:
			s.Verified++
		case model.StatusPending:
			s.Pending++
		case model.StatusRejected:
			s.Rejected++
		}
	}
	return s
}

func limiterKey(s model.Subject) string {
	if s.EntityID != "" {
		return s.EntityID
	}
	return string(s.Kind)
}
