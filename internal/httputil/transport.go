// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for outbound calls.
package httputil

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport logs every round trip to the completion service. It
// never retries and never alters the request; retry and timeout behavior
// belong to the client using it.
type LoggingTransport struct {
	// Base performs the request. Nil means http.DefaultTransport.
	Base   http.RoundTripper
	Logger *zap.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Warn("upstream request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Warn("upstream request returned error status", fields...)
	} else {
		logger.Debug("upstream request", fields...)
	}
	return resp, nil
}

// NewClient returns an http.Client that logs through logger. Timeout 0 keeps
// the caller's default of no client-level deadline.
func NewClient(logger *zap.Logger, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingTransport{Logger: logger},
		Timeout:   timeout,
	}
}
