// Package service orchestrates announcement creation: naming, cache policy,
// synthesis, transcoding, and artifact bookkeeping.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/session-audio/announcer/internal/artifact"
	"github.com/session-audio/announcer/internal/core"
)

// ErrIdentifierEmpty is returned when a request carries no identifier.
var ErrIdentifierEmpty = errors.New("identifier cannot be empty")

// Service produces announcement artifacts. The shared engine handle is never
// recreated; per-request engine overrides pass an ephemeral engine through
// CreateOptions instead of touching shared state.
type Service struct {
	engine       core.SpeechEngine
	transcoder   core.Transcoder
	store        *artifact.Store
	policy       artifact.Policy
	forceDefault bool
	log          zerolog.Logger
}

// New creates a service around a default engine, a transcoder, and a store.
func New(
	engine core.SpeechEngine,
	transcoder core.Transcoder,
	store *artifact.Store,
	policy artifact.Policy,
	forceDefault bool,
	log zerolog.Logger,
) *Service {
	return &Service{
		engine:       engine,
		transcoder:   transcoder,
		store:        store,
		policy:       policy,
		forceDefault: forceDefault,
		log:          log,
	}
}

// Engine returns the shared default engine.
func (s *Service) Engine() core.SpeechEngine {
	return s.engine
}

// Store returns the artifact store.
func (s *Service) Store() *artifact.Store {
	return s.store
}

// CreateOptions carries per-request variations.
type CreateOptions struct {
	// Force regenerates the artifact even when the caching policy would
	// have reused an existing one.
	Force bool

	// Engine overrides the default engine for this single request.
	Engine core.SpeechEngine
}

// Result describes a produced (or reused) artifact.
type Result struct {
	Path     string
	Filename string
	Engine   string
	Cached   bool
}

// Create produces the announcement artifact for an identifier and action.
// Under the reuse policy an existing artifact short-circuits synthesis; the
// force flag deletes it first, guaranteeing regeneration. Under the unique
// policy every call owns a fresh filename and no cache check happens.
func (s *Service) Create(ctx context.Context, identifier string, action core.Action, opts CreateOptions) (Result, error) {
	if identifier == "" {
		return Result{}, ErrIdentifierEmpty
	}

	engine := s.engine
	if opts.Engine != nil {
		engine = opts.Engine
	}

	dirErr := s.store.EnsureDir()
	if dirErr != nil {
		return Result{}, dirErr
	}

	spec := artifact.NewSpec(identifier, action, s.store.Dir(), s.policy)

	if s.policy == artifact.PolicyReuse {
		cached, done, err := s.checkCache(spec, opts.Force || s.forceDefault, engine)
		if err != nil {
			return Result{}, err
		}

		if done {
			return cached, nil
		}
	}

	err := s.generate(ctx, engine, spec)
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("filename", spec.Filename).
		Str("identifier", spec.SafeIdentifier).
		Str("action", string(action)).
		Str("engine", engine.Name()).
		Msg("created announcement artifact")

	return Result{
		Path:     spec.Path(),
		Filename: spec.Filename,
		Engine:   engine.Name(),
		Cached:   false,
	}, nil
}

// checkCache applies the reuse policy. It reports done=true when an existing
// artifact satisfies the request without synthesis.
func (s *Service) checkCache(spec artifact.Spec, force bool, engine core.SpeechEngine) (Result, bool, error) {
	if force {
		removeErr := s.store.Remove(spec.Filename)
		if removeErr != nil {
			return Result{}, false, removeErr
		}

		return Result{}, false, nil
	}

	exists, err := s.store.Exists(spec.Filename)
	if err != nil {
		return Result{}, false, err
	}

	if !exists {
		return Result{}, false, nil
	}

	s.log.Debug().Str("filename", spec.Filename).Msg("serving cached artifact")

	return Result{
		Path:     spec.Path(),
		Filename: spec.Filename,
		Engine:   engine.Name(),
		Cached:   true,
	}, true, nil
}

// generate synthesizes the phrase to an intermediate file and transcodes it
// into the final artifact. The transcoder owns intermediate cleanup.
func (s *Service) generate(ctx context.Context, engine core.SpeechEngine, spec artifact.Spec) error {
	tempPath := spec.TempPath(engine.NativeExt())

	synthErr := engine.Synthesize(ctx, spec.Phrase, tempPath)
	if synthErr != nil {
		return fmt.Errorf("speech synthesis failed: %w", synthErr)
	}

	transcodeErr := s.transcoder.Transcode(ctx, tempPath, spec.Path())
	if transcodeErr != nil {
		return fmt.Errorf("audio conversion failed: %w", transcodeErr)
	}

	return nil
}
