package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/brickguide/internal/guide"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/sequencer"
	"github.com/five82/brickguide/internal/state"
)

type analyzeCall struct {
	opts    options.AnalyzeOptions
	src     guide.AnalyzeSource
	release chan analyzeResult
}

type analyzeResult struct {
	payload *guide.Payload
	err     error
}

// fakeAnalyzer hands every call to the test through calls and blocks until
// the test answers on the call's release channel. When honorCancel is set,
// cancellation of the call's context also ends the call.
type fakeAnalyzer struct {
	calls       chan *analyzeCall
	honorCancel bool

	mu       sync.Mutex
	stepsReq []guide.StepsRequest
	steps    []guide.Step
	stepsErr error
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{calls: make(chan *analyzeCall, 8)}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, opts options.AnalyzeOptions, src guide.AnalyzeSource) (*guide.Payload, error) {
	call := &analyzeCall{opts: opts, src: src, release: make(chan analyzeResult, 1)}
	f.calls <- call
	if f.honorCancel {
		select {
		case res := <-call.release:
			return res.payload, res.err
		case <-ctx.Done():
			return nil, &guide.Error{Kind: guide.KindCancelled, Message: "request cancelled", Err: context.Cause(ctx)}
		}
	}
	res := <-call.release
	return res.payload, res.err
}

func (f *fakeAnalyzer) GenerateSteps(ctx context.Context, req guide.StepsRequest) ([]guide.Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepsReq = append(f.stepsReq, req)
	return f.steps, f.stepsErr
}

func (f *fakeAnalyzer) next(t *testing.T) *analyzeCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Analyze call")
		return nil
	}
}

func guidePayload(t *testing.T, id string) *guide.Payload {
	t.Helper()
	p, err := guide.DecodePayload([]byte(`{"analysisId":"` + id + `","meta":{"width":2,"height":2}}`))
	require.NoError(t, err)
	return p
}

func newTestSession(t *testing.T, analyzer guide.Analyzer, in Inputs) (*Session, *state.Store) {
	t.Helper()
	store := &state.Store{}
	s := NewSession(context.Background(), analyzer, store, in, log.New(io.Discard, "", 0))
	s.loadImage = func(path string) (*guide.Image, error) {
		return &guide.Image{Name: path, ContentType: "image/png", Data: []byte{1}}, nil
	}
	t.Cleanup(s.Close)
	return s, store
}

func analyzeAsync(s *Session) <-chan sequencer.State {
	done := make(chan sequencer.State, 1)
	go func() { done <- s.Analyze() }()
	return done
}

func wait(t *testing.T, ch <-chan sequencer.State) sequencer.State {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for operation")
		return sequencer.Idle
	}
}

func TestSession_LateResponseNeverOverwritesNewer(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})

	firstDone := analyzeAsync(s)
	first := fa.next(t)
	secondDone := analyzeAsync(s)
	second := fa.next(t)

	second.release <- analyzeResult{payload: guidePayload(t, "second")}
	assert.Equal(t, sequencer.Resolved, wait(t, secondDone))

	first.release <- analyzeResult{payload: guidePayload(t, "first")}
	assert.Equal(t, sequencer.Superseded, wait(t, firstDone))

	snap := store.Snapshot()
	require.True(t, snap.HasGuide)
	assert.Equal(t, "second", snap.Guide.AnalysisID())
	assert.Equal(t, state.StatusDone, snap.Status)
}

func TestSession_LateFailureIsNotShown(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})

	firstDone := analyzeAsync(s)
	first := fa.next(t)
	secondDone := analyzeAsync(s)
	second := fa.next(t)

	second.release <- analyzeResult{payload: guidePayload(t, "ok")}
	wait(t, secondDone)
	first.release <- analyzeResult{err: &guide.Error{Kind: guide.KindServerError, Status: 500, Message: "boom"}}
	wait(t, firstDone)

	snap := store.Snapshot()
	assert.Nil(t, snap.LastError)
	assert.Equal(t, state.StatusDone, snap.Status)
}

func TestSession_InputChangeCancelsAndClears(t *testing.T) {
	fa := newFakeAnalyzer()
	fa.honorCancel = true
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})

	done := analyzeAsync(s)
	fa.next(t)
	assert.Equal(t, state.StatusRunning, store.Snapshot().Status)

	next := options.Defaults()
	next.GridSize = "48x48"
	s.SetOptions(next)

	assert.Equal(t, sequencer.Superseded, wait(t, done))
	snap := store.Snapshot()
	assert.Equal(t, state.StatusIdle, snap.Status)
	assert.Nil(t, snap.LastError, "cancellation must not surface as an error")
	assert.False(t, snap.HasGuide)
	assert.Equal(t, options.GridSize("48x48"), s.Inputs().Options.GridSize)
}

func TestSession_SameOptionsDoNotClear(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), UseSample: true})

	require.Equal(t, sequencer.Resolved, s.Analyze())
	s.SetOptions(options.Coerce(map[string]any{"grid_size": "16x16"}))
	s.SetUseSample(true)
	assert.True(t, store.Snapshot().HasGuide)
}

func TestSession_ImageRequired(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults()})

	assert.Equal(t, sequencer.Resolved, s.Analyze())
	snap := store.Snapshot()
	assert.Equal(t, state.StatusError, snap.Status)
	assert.True(t, errors.Is(snap.LastError, ErrImageRequired))
	assert.Empty(t, fa.calls)
}

func TestSession_SampleModeSkipsNetwork(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), UseSample: true})

	require.Equal(t, sequencer.Resolved, s.Analyze())
	snap := store.Snapshot()
	require.True(t, snap.HasGuide)
	assert.Equal(t, "sample", snap.Guide.Source())
	assert.Equal(t, 9, snap.Grid.Filled())
	assert.Empty(t, fa.calls)

	require.Equal(t, sequencer.Resolved, s.GenerateSteps(false))
	snap = store.Snapshot()
	assert.Equal(t, state.StatusDone, snap.StepsStatus)
	assert.Len(t, snap.Steps, 3)
	assert.Empty(t, fa.stepsReq)
}

func TestSession_GenerateStepsUsesAnalysisID(t *testing.T) {
	fa := newFakeAnalyzer()
	fa.steps = []guide.Step{{Number: 1, Title: "Base"}}
	opts := options.Coerce(map[string]any{"brickTypes": []string{"2x2"}})
	s, store := newTestSession(t, fa, Inputs{Options: opts, ImagePath: "cat.png"})

	done := analyzeAsync(s)
	fa.next(t).release <- analyzeResult{payload: guidePayload(t, "an-9")}
	wait(t, done)

	require.Equal(t, sequencer.Resolved, s.GenerateSteps(true))
	require.Len(t, fa.stepsReq, 1)
	assert.Equal(t, guide.StepsRequest{AnalysisID: "an-9", BrickTypes: []string{"1x1", "2x2"}, Optimize: true}, fa.stepsReq[0])
	assert.Len(t, store.Snapshot().Steps, 1)
}

func TestSession_StepsBeforeAnalysis(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults()})

	s.GenerateSteps(false)
	snap := store.Snapshot()
	assert.Equal(t, state.StatusError, snap.StepsStatus)
	assert.True(t, errors.Is(snap.StepsError, ErrNoAnalysis))
}

func TestSession_RerunReusesAnalysisID(t *testing.T) {
	fa := newFakeAnalyzer()
	s, _ := newTestSession(t, fa, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})

	done := analyzeAsync(s)
	first := fa.next(t)
	require.NotNil(t, first.src.Image)
	first.release <- analyzeResult{payload: guidePayload(t, "an-1")}
	wait(t, done)

	next := options.Defaults()
	next.ColorLimit = 8
	s.SetOptions(next)

	done = analyzeAsync(s)
	rerun := fa.next(t)
	assert.Nil(t, rerun.src.Image)
	assert.Equal(t, "an-1", rerun.src.AnalysisID)
	assert.Equal(t, 8, rerun.opts.ColorLimit)

	// An expired analysis falls back to uploading the image again.
	rerun.release <- analyzeResult{err: &guide.Error{Kind: guide.KindClientError, Status: 404, Message: "unknown analysis"}}
	upload := fa.next(t)
	assert.NotNil(t, upload.src.Image)
	upload.release <- analyzeResult{payload: guidePayload(t, "an-2")}
	assert.Equal(t, sequencer.Resolved, wait(t, done))

	s.SetImagePath("dog.png")
	done = analyzeAsync(s)
	fresh := fa.next(t)
	assert.NotNil(t, fresh.src.Image)
	assert.Empty(t, fresh.src.AnalysisID)
	fresh.release <- analyzeResult{payload: guidePayload(t, "an-3")}
	wait(t, done)
}

func TestSession_ResetForgetsImage(t *testing.T) {
	fa := newFakeAnalyzer()
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), UseSample: true})
	require.Equal(t, sequencer.Resolved, s.Analyze())

	s.SetImagePath("cat.png")
	s.Reset()

	assert.Empty(t, s.Inputs().ImagePath)
	assert.False(t, store.Snapshot().HasGuide)
}

// echoAnalyzer answers immediately. Guides carry the requested grid size as
// their analysis id, and steps are titled with the analysis they were asked
// for.
type echoAnalyzer struct{}

func (echoAnalyzer) Analyze(ctx context.Context, opts options.AnalyzeOptions, src guide.AnalyzeSource) (*guide.Payload, error) {
	return guide.DecodePayload([]byte(`{"analysisId":"` + string(opts.GridSize) + `","meta":{"width":2,"height":2}}`))
}

func (echoAnalyzer) GenerateSteps(ctx context.Context, req guide.StepsRequest) ([]guide.Step, error) {
	return []guide.Step{{Number: 1, Title: req.AnalysisID}}, nil
}

func TestSession_OptionChangeDuringAnalyzeNeverKeepsStaleGuide(t *testing.T) {
	changed := options.Defaults()
	changed.GridSize = "48x48"

	for i := range 2000 {
		s, store := newTestSession(t, echoAnalyzer{}, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.Analyze() }()
		go func() { defer wg.Done(); s.SetOptions(changed) }()
		wg.Wait()

		snap := store.Snapshot()
		if snap.HasGuide {
			require.Equal(t, string(s.Inputs().Options.GridSize), snap.Guide.AnalysisID(),
				"iteration %d: guide built from replaced options", i)
		}
	}
}

func TestSession_StepsNeverAttachToReplacementGuide(t *testing.T) {
	for i := range 2000 {
		s, store := newTestSession(t, echoAnalyzer{}, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})
		store.SetGuide(guidePayload(t, "old"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.GenerateSteps(false) }()
		go func() { defer wg.Done(); s.Analyze() }()
		wg.Wait()

		snap := store.Snapshot()
		for _, step := range snap.Steps {
			require.Equal(t, snap.Guide.AnalysisID(), step.Title,
				"iteration %d: guide %q shown with steps of another analysis", i, snap.Guide.AnalysisID())
		}
	}
}

func TestSession_StepsRefusedWhileAnalysisRuns(t *testing.T) {
	fa := newFakeAnalyzer()
	fa.honorCancel = true
	s, store := newTestSession(t, fa, Inputs{Options: options.Defaults(), ImagePath: "cat.png"})
	store.SetGuide(guidePayload(t, "old"))

	done := analyzeAsync(s)
	call := fa.next(t)

	s.GenerateSteps(false)
	snap := store.Snapshot()
	assert.True(t, errors.Is(snap.StepsError, ErrAnalysisRunning))
	assert.Empty(t, fa.stepsReq)

	call.release <- analyzeResult{payload: guidePayload(t, "new")}
	assert.Equal(t, sequencer.Resolved, wait(t, done))
}
