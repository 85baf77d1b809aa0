package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/five82/brickguide/internal/guide"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/sample"
	"github.com/five82/brickguide/internal/sequencer"
	"github.com/five82/brickguide/internal/state"
)

var (
	// ErrImageRequired is recorded when analysis starts without an image
	// outside sample mode.
	ErrImageRequired = errors.New("choose an image to analyze, or switch to sample mode")
	// ErrNoAnalysis is recorded when steps are requested before a guide exists.
	ErrNoAnalysis = errors.New("run an analysis before generating steps")
	// ErrAnalysisRunning is recorded when steps are requested while the guide
	// they would belong to is being replaced.
	ErrAnalysisRunning = errors.New("wait for the analysis to finish before generating steps")
)

// Inputs are the user choices an analysis is built from.
type Inputs struct {
	Options   options.AnalyzeOptions
	ImagePath string
	UseSample bool
}

// Session runs analyses and step generation for one user. Every operation
// blocks until its request finishes, and is meant to run in its own
// goroutine. Results reach the store only through the sequencers, so a slow
// request can never overwrite a newer one.
type Session struct {
	ctx       context.Context
	analyzer  guide.Analyzer
	store     *state.Store
	logger    *log.Logger
	loadImage func(path string) (*guide.Image, error)

	analysis sequencer.Sequencer
	steps    sequencer.Sequencer

	// gate makes "read inputs, then take a ticket" atomic with respect to
	// input changes, which cancel tickets. Lock order: gate, then a
	// sequencer, then mu or the store.
	gate sync.Mutex

	mu         sync.Mutex
	inputs     Inputs
	analysisID string // last service analysis, reusable after option changes
}

// NewSession builds a Session. Requests are cancelled when ctx is.
func NewSession(ctx context.Context, analyzer guide.Analyzer, store *state.Store, initial Inputs, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	initial.Options = initial.Options.Canonical()
	initial.ImagePath = strings.TrimSpace(initial.ImagePath)
	return &Session{
		ctx:       ctx,
		analyzer:  analyzer,
		store:     store,
		logger:    logger,
		loadImage: guide.LoadImage,
		inputs:    initial,
	}
}

// Inputs returns the current inputs.
func (s *Session) Inputs() Inputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.inputs
	in.Options.BrickTypes = append([]string(nil), in.Options.BrickTypes...)
	return in
}

// SetOptions replaces the analysis options. A change invalidates the
// current guide and any request in flight.
func (s *Session) SetOptions(opts options.AnalyzeOptions) {
	opts = opts.Canonical()
	s.gate.Lock()
	defer s.gate.Unlock()
	s.mu.Lock()
	changed := !s.inputs.Options.Equal(opts)
	s.inputs.Options = opts
	s.mu.Unlock()
	if changed {
		s.inputsChanged("options")
	}
}

// SetImagePath selects a new image. The previous analysis id is forgotten.
func (s *Session) SetImagePath(path string) {
	path = strings.TrimSpace(path)
	s.gate.Lock()
	defer s.gate.Unlock()
	s.mu.Lock()
	changed := s.inputs.ImagePath != path
	s.inputs.ImagePath = path
	if changed {
		s.analysisID = ""
	}
	s.mu.Unlock()
	if changed {
		s.inputsChanged("image")
	}
}

// SetUseSample toggles sample mode.
func (s *Session) SetUseSample(use bool) {
	s.gate.Lock()
	defer s.gate.Unlock()
	s.mu.Lock()
	changed := s.inputs.UseSample != use
	s.inputs.UseSample = use
	s.mu.Unlock()
	if changed {
		s.inputsChanged("sample mode")
	}
}

// Reset abandons all work and forgets the image and results. Options are
// kept.
func (s *Session) Reset() {
	s.gate.Lock()
	defer s.gate.Unlock()
	s.mu.Lock()
	s.inputs.ImagePath = ""
	s.analysisID = ""
	s.mu.Unlock()
	s.inputsChanged("reset")
}

// Close cancels everything in flight.
func (s *Session) Close() {
	s.analysis.Cancel()
	s.steps.Cancel()
}

// inputsChanged must be called with gate held.
func (s *Session) inputsChanged(what string) {
	s.analysis.Cancel()
	s.steps.Cancel()
	s.store.Clear()
	s.logger.Printf("inputs changed (%s); cleared guide and steps", what)
}

// Analyze runs one analysis with the current inputs and reports whether its
// result was applied or superseded.
func (s *Session) Analyze() sequencer.State {
	s.gate.Lock()
	in := s.Inputs()
	s.mu.Lock()
	reuseID := s.analysisID
	s.mu.Unlock()

	// Steps belong to the guide being replaced.
	s.steps.Cancel()
	ticket, ctx := s.analysis.Begin(s.ctx)
	s.analysis.Report(ticket, s.store.BeginAnalysis)
	s.gate.Unlock()

	payload, err := s.runAnalysis(ctx, ticket, in, reuseID)

	outcome := s.analysis.Resolve(ticket, func() {
		if err != nil {
			s.store.FailAnalysis(err)
			return
		}
		s.store.SetGuide(payload)
		if id := payload.AnalysisID(); id != "" && payload.Source() != "sample" {
			s.mu.Lock()
			s.analysisID = id
			s.mu.Unlock()
		}
	})
	switch {
	case outcome == sequencer.Superseded:
		s.logger.Printf("analysis #%d superseded; result discarded", ticket)
	case err != nil && !guide.IsCancelled(err):
		s.logger.Printf("analysis #%d failed: %v", ticket, err)
	case err == nil:
		s.logger.Printf("analysis #%d applied (source %q, id %q)", ticket, payload.Source(), payload.AnalysisID())
	}
	return outcome
}

func (s *Session) runAnalysis(ctx context.Context, ticket sequencer.Ticket, in Inputs, reuseID string) (*guide.Payload, error) {
	if in.UseSample {
		s.logger.Printf("analysis #%d using bundled sample", ticket)
		return sample.Guide()
	}

	if in.ImagePath == "" && reuseID == "" {
		return nil, ErrImageRequired
	}

	opts := in.Options
	s.logger.Printf("analysis #%d started: grid %s, %s, mode %s, bricks %s",
		ticket, opts.GridSize, options.ColorLimitLabel(opts.ColorLimit), opts.BrickMode, strings.Join(opts.BrickTypes, ","))

	ctx = guide.WithRetryObserver(ctx, func(ev guide.RetryEvent) {
		s.analysis.Report(ticket, func() { s.store.NoteRetry(ev) })
	})

	// The service keeps uploaded images for a while, so a re-run with new
	// options references the previous analysis instead of uploading again.
	if reuseID != "" {
		payload, err := s.analyzer.Analyze(ctx, opts, guide.AnalyzeSource{AnalysisID: reuseID})
		if !analysisExpired(err) || in.ImagePath == "" {
			return payload, err
		}
		s.logger.Printf("analysis #%d: analysis %q expired; uploading image again", ticket, reuseID)
	}

	img, err := s.loadImage(in.ImagePath)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, opts, guide.AnalyzeSource{Image: img})
}

func analysisExpired(err error) bool {
	e, ok := guide.AsError(err)
	return ok && e.Kind == guide.KindClientError && (e.Status == 404 || e.Status == 410)
}

// GenerateSteps asks for construction steps for the current guide.
func (s *Session) GenerateSteps(optimize bool) sequencer.State {
	// An analysis starting after this point cancels the steps ticket, and
	// one started before it shows up in the snapshot as running.
	s.gate.Lock()
	in := s.Inputs()
	ticket, ctx := s.steps.Begin(s.ctx)
	s.steps.Report(ticket, s.store.BeginSteps)
	snap := s.store.Snapshot()
	s.gate.Unlock()

	var (
		steps []guide.Step
		err   error
	)
	switch {
	case snap.Status == state.StatusRunning:
		err = ErrAnalysisRunning
	case !snap.HasGuide:
		err = ErrNoAnalysis
	case snap.Guide.Source() == "sample":
		steps, err = sample.Steps()
	case snap.Guide.AnalysisID() == "":
		// Some guides ship their steps inline and have no id to ask about.
		if steps = snap.Guide.Steps(); len(steps) == 0 {
			err = ErrNoAnalysis
		}
	default:
		req := guide.StepsRequest{
			AnalysisID: snap.Guide.AnalysisID(),
			BrickTypes: in.Options.BrickTypes,
			Optimize:   optimize,
		}
		s.logger.Printf("steps #%d started for analysis %q", ticket, req.AnalysisID)
		ctx = guide.WithRetryObserver(ctx, func(ev guide.RetryEvent) {
			s.steps.Report(ticket, func() { s.store.NoteRetry(ev) })
		})
		steps, err = s.analyzer.GenerateSteps(ctx, req)
	}

	outcome := s.steps.Resolve(ticket, func() {
		if err != nil {
			s.store.FailSteps(err)
			return
		}
		if !s.store.SetStepsFor(snap.Guide, steps) {
			s.logger.Printf("steps #%d belong to a replaced guide; discarded", ticket)
		}
	})
	switch {
	case outcome == sequencer.Superseded:
		s.logger.Printf("steps #%d superseded; result discarded", ticket)
	case err != nil && !guide.IsCancelled(err):
		s.logger.Printf("steps #%d failed: %v", ticket, err)
	case err == nil:
		s.logger.Printf("steps #%d applied (%d steps)", ticket, len(steps))
	}
	return outcome
}
