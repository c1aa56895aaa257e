package selector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SelectorBuilderOption configures a Selector.
type SelectorBuilderOption func(*selectorImpl)

// WithFieldAssociation sets the default field association.
//
// Parameters:
//   - mode: the association every viewport uses unless overridden
//
// Returns:
//   - SelectorBuilderOption: the option
func WithFieldAssociation(mode FieldAssociation) SelectorBuilderOption {
	return func(s *selectorImpl) {
		s.defaults.association = mode
	}
}

// WithCaptureZValues sets the default depth capture flag.
//
// Parameters:
//   - capture: true to expose depth and world positions on every pick
//
// Returns:
//   - SelectorBuilderOption: the option
func WithCaptureZValues(capture bool) SelectorBuilderOption {
	return func(s *selectorImpl) {
		s.defaults.captureZ = capture
	}
}

// WithBatchCapacity caps the number of objects encoded per batch. Values at or below zero
// keep the full 24-bit code space.
//
// Parameters:
//   - capacity: the maximum objects per batch
//
// Returns:
//   - SelectorBuilderOption: the option
func WithBatchCapacity(capacity int) SelectorBuilderOption {
	return func(s *selectorImpl) {
		s.capacity = capacity
	}
}

// WithRegisterer registers the pick metrics on reg. Without it metrics are collected but
// never exported.
//
// Parameters:
//   - reg: the prometheus registerer
//
// Returns:
//   - SelectorBuilderOption: the option
func WithRegisterer(reg prometheus.Registerer) SelectorBuilderOption {
	return func(s *selectorImpl) {
		s.registerer = reg
	}
}

// WithQueueSize sets how many picks may wait for the worker.
//
// Parameters:
//   - size: the queue length, must be positive
//
// Returns:
//   - SelectorBuilderOption: the option
func WithQueueSize(size int) SelectorBuilderOption {
	if size <= 0 {
		panic("selector: WithQueueSize requires a positive size")
	}
	return func(s *selectorImpl) {
		s.queueSize = size
	}
}

// EncoderOption configures an Encoder.
type EncoderOption func(*encoderImpl)

// WithEncoderBatchCapacity caps the number of objects encoded per batch.
//
// Parameters:
//   - capacity: the maximum objects per batch, must be positive
//
// Returns:
//   - EncoderOption: the option
func WithEncoderBatchCapacity(capacity int) EncoderOption {
	if capacity <= 0 {
		panic("selector: WithEncoderBatchCapacity requires a positive capacity")
	}
	return func(e *encoderImpl) {
		e.capacity = min(capacity, e.capacity)
	}
}

func withEncoderMetrics(m *pickMetrics) EncoderOption {
	return func(e *encoderImpl) {
		e.metrics = m
	}
}
