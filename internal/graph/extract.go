// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph turns free-form notes into a knowledge graph with one
// JSON-mode completion call.
//
// Output that is not JSON, or JSON that is not a graph, degrades to an empty
// graph. Failures reaching the completion service are returned to the caller.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/pdiddy/notegraph/pkg/types"
)

// Extractor builds knowledge graphs from notes. It holds no per-request
// state and is safe for concurrent use.
type Extractor struct {
	backend Backend
	model   string
	schema  *jsonschema.Schema
	decoder Decoder
	logger  *zap.Logger
	metrics *Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// NewExtractor returns an Extractor that sends requests for cfg.Model to
// backend. An empty model falls back to DefaultModel.
func NewExtractor(backend Backend, cfg types.AIConfig, opts ...Option) (*Extractor, error) {
	schema, err := GraphSchema()
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	e := &Extractor{
		backend: backend,
		model:   model,
		schema:  schema,
		decoder: Decoder{Repair: cfg.RepairJSON},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Generate asks the model for a graph of notes.
//
// Malformed or mismatched output yields types.EmptyGraph() and a nil error.
// The returned graph is not checked for unique IDs, dangling edges or size.
// A non-nil error means the completion call itself failed.
func (e *Extractor) Generate(ctx context.Context, notes string) (types.KnowledgeGraph, error) {
	start := time.Now()

	prompt, err := renderPrompt(notes)
	if err != nil {
		return types.KnowledgeGraph{}, fmt.Errorf("rendering prompt: %w", err)
	}

	content, err := e.backend.Complete(ctx, Request{
		Prompt: prompt,
		Model:  e.model,
		Schema: e.schema,
	})
	if err != nil {
		e.metrics.observe(OutcomeUpstreamError, time.Since(start))
		e.logger.Error("completion failed",
			zap.String("model", e.model),
			zap.Int("upstream_status", UpstreamStatus(err)),
			zap.Error(err),
		)
		return types.KnowledgeGraph{}, err
	}

	g, err := e.decoder.Decode(content)
	if err != nil {
		outcome := OutcomeSchemaMismatch
		var de *DecodeError
		if errors.As(err, &de) {
			outcome = Outcome(de.Reason)
		}
		e.metrics.observe(outcome, time.Since(start))
		e.logger.Warn("model output rejected, returning empty graph",
			zap.String("outcome", string(outcome)),
			zap.Int("content_bytes", len(content)),
			zap.Error(err),
		)
		return types.EmptyGraph(), nil
	}

	e.metrics.observe(OutcomeOK, time.Since(start))
	e.logger.Debug("graph extracted",
		zap.Bool("empty", g.IsEmpty()),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return g, nil
}
