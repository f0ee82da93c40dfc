package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/aidmatch/internal/model"
)

// mockVerifier marks subjects verified unless their entity id starts with "bad"
type mockVerifier struct {
	delay time.Duration
	calls int32
}

func (m *mockVerifier) Verify(ctx context.Context, s model.Subject) (model.VerificationResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return model.VerificationResult{}, ctx.Err()
		}
	}
	switch {
	case len(s.EntityID) >= 3 && s.EntityID[:3] == "bad":
		return model.VerificationResult{}, model.InvalidSubject("evidence_ref", "evidence reference is required")
	case len(s.EntityID) >= 4 && s.EntityID[:4] == "hold":
		return model.VerificationResult{Kind: s.Kind, EntityID: s.EntityID, Status: model.StatusPending}, nil
	}
	return model.VerificationResult{Kind: s.Kind, EntityID: s.EntityID, Status: model.StatusVerified}, nil
}

func subjects(ids ...string) []model.Subject {
	out := make([]model.Subject, len(ids))
	for i, id := range ids {
		out[i] = model.Subject{Kind: model.SubjectCostLineItem, EntityID: id, EvidenceRef: "ref"}
	}
	return out
}

func TestBatchProcessor_ProcessSubjects_InputOrder(t *testing.T) {
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("ben-%02d", i)
	}

	verifier := &mockVerifier{delay: time.Millisecond}
	results := NewBatchProcessor(verifier, 4, nil).ProcessSubjects(context.Background(), subjects(ids...))

	require.Len(t, results, len(ids))
	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, ids[i], r.Result.EntityID)
	}
	assert.Equal(t, int32(len(ids)), atomic.LoadInt32(&verifier.calls))
}

func TestBatchProcessor_ProcessSubjects_Errors(t *testing.T) {
	results := NewBatchProcessor(&mockVerifier{}, 2, nil).ProcessSubjects(context.Background(), subjects("ben-1", "bad-2", "hold-3"))

	require.Len(t, results, 3)
	assert.NoError(t, results[0].GetError())
	assert.True(t, errors.Is(results[1].GetError(), model.ErrInvalidSubject))
	assert.Nil(t, results[1].Result)
	assert.Equal(t, model.StatusPending, results[2].Result.Status)

	assert.Equal(t, Summary{Total: 3, Verified: 1, Pending: 1, Failed: 1}, Summarize(results))
}

func TestBatchProcessor_ProcessSubjects_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockVerifier{}, 2, nil).ProcessSubjects(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBatchProcessor_ProcessSubjects_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockVerifier{delay: 50 * time.Millisecond}, 2, nil).ProcessSubjects(ctx, subjects("a", "b", "c", "d", "e"))

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Error(t, r.Error)
	}
}

func TestBatchProcessor_ProcessSubjects_Limiter(t *testing.T) {
	limiter := NewLimiter(1000, 100)
	results := NewBatchProcessor(&mockVerifier{}, 3, limiter).ProcessSubjects(context.Background(), subjects("ben-1", "ben-1", "ben-2"))

	for _, r := range results {
		assert.NoError(t, r.Error)
	}
	assert.Equal(t, 2, limiter.Len())
}

func TestLimiterKey(t *testing.T) {
	assert.Equal(t, "ben-1", limiterKey(model.Subject{Kind: model.SubjectIdentityDocument, EntityID: "ben-1"}))
	assert.Equal(t, "crisis_claim", limiterKey(model.Subject{Kind: model.SubjectCrisisClaim}))
}
