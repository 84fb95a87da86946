// Package oracle turns free text into a causal graph. An Oracle produces a raw
// payload; Load validates it into a models.Graph and reports what was dropped.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TFMV/solmap/ingest"
	"github.com/TFMV/solmap/models"
)

// Oracle maps input text to a graph payload
type Oracle interface {
	Extract(ctx context.Context, text string) (*ingest.Payload, error)
	Name() string
}

// Error reports a failed oracle call: transport, API or decoding trouble.
// Callers show it as a single error state; no retries happen here.
type Error struct {
	Oracle string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s oracle: %v", e.Oracle, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config selects and configures an oracle
type Config struct {
	Kind      string // anthropic, pattern, json or csv
	Model     string
	APIKey    string
	MaxTokens int64
	BaseURL   string
}

// New returns the oracle named by cfg.Kind
func New(cfg Config) (Oracle, error) {
	switch strings.ToLower(cfg.Kind) {
	case "anthropic", "claude":
		return NewAnthropicOracle(cfg)
	case "", "pattern", "text":
		return NewProcessorOracle("pattern", ingest.NewPatternProcessor()), nil
	case "json":
		return NewProcessorOracle("json", ingest.NewJSONProcessor()), nil
	case "csv":
		return NewProcessorOracle("csv", ingest.NewCSVProcessor()), nil
	default:
		return nil, fmt.Errorf("unknown oracle: %s", cfg.Kind)
	}
}

// Load asks o for the graph described by text and builds it. Input problems
// come back as models.InputError, everything else as *Error.
func Load(ctx context.Context, o Oracle, text string, logger *slog.Logger) (*models.Graph, *models.BuildReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(text) == "" {
		return nil, &models.BuildReport{}, models.NewInputError(models.ErrNoGraphData, "no text to analyze")
	}

	logger.Debug("extracting causal graph", "oracle", o.Name(), "chars", len(text))
	payload, err := o.Extract(ctx, text)
	if err != nil {
		if models.IsInputError(err) {
			return nil, &models.BuildReport{}, err
		}
		var oe *Error
		if errors.As(err, &oe) {
			return nil, &models.BuildReport{}, err
		}
		return nil, &models.BuildReport{}, &Error{Oracle: o.Name(), Err: err}
	}

	g, report, err := payload.Build()
	if err != nil {
		return nil, report, err
	}
	if n := report.Ignored(); n > 0 {
		logger.Warn("relationships ignored", "count", n, "reason", "unknown node id")
	}
	if len(report.DuplicateNodes) > 0 {
		logger.Warn("duplicate nodes ignored", "ids", report.DuplicateNodes)
	}
	logger.Info("graph loaded", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, report, nil
}

// ProcessorOracle runs an ingest.DataProcessor over the text itself. It needs
// no network, which makes it the offline oracle and the one tests use.
type ProcessorOracle struct {
	name      string
	processor ingest.DataProcessor
}

// NewProcessorOracle wraps a processor as an oracle
func NewProcessorOracle(name string, processor ingest.DataProcessor) *ProcessorOracle {
	return &ProcessorOracle{name: name, processor: processor}
}

// Name returns the oracle name
func (p *ProcessorOracle) Name() string {
	return p.name
}

// Extract processes text with the wrapped processor
func (p *ProcessorOracle) Extract(ctx context.Context, text string) (*ingest.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.processor.ProcessData([]byte(text))
}
