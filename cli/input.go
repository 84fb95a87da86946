package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/solmap/config"
	"github.com/TFMV/solmap/ingest"
	"github.com/TFMV/solmap/models"
	"github.com/TFMV/solmap/oracle"
)

// inputFlags selects where the graph comes from: a saved graph file, or a
// text given inline, read from a file or piped on stdin
type inputFlags struct {
	text  string
	file  string
	graph string
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.text, "text", "", "Text describing what's on your mind")
	cmd.Flags().StringVarP(&in.file, "file", "f", "", "Read the text from a file (- for stdin)")
	cmd.Flags().StringVarP(&in.graph, "graph", "g", "", "Use a saved graph (.json or .csv) instead of extracting one")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "graph")
}

// loader returns the function producing the graph for a command
func (in *inputFlags) loader(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (func(context.Context) (*models.Graph, *models.BuildReport, error), error) {
	if in.graph != "" {
		path := in.graph
		return func(context.Context) (*models.Graph, *models.BuildReport, error) {
			return loadGraphFile(path)
		}, nil
	}

	text, err := in.readText(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	o, err := oracle.New(cfg.OracleConfig())
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*models.Graph, *models.BuildReport, error) {
		return oracle.Load(ctx, o, text, logger)
	}, nil
}

// load runs the loader right away
func (in *inputFlags) load(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*models.Graph, *models.BuildReport, error) {
	load, err := in.loader(cmd, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return load(cmd.Context())
}

func (in *inputFlags) readText(stdin io.Reader) (string, error) {
	switch {
	case in.text != "":
		return in.text, nil
	case in.file == "-":
		return readAll(stdin)
	case in.file != "":
		data, err := os.ReadFile(in.file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no input: pass --text, --file or --graph, or pipe text on stdin")
		}
	}
	return readAll(stdin)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// loadGraphFile reads a saved graph, picking the processor by extension
func loadGraphFile(path string) (*models.Graph, *models.BuildReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	processor, err := ingest.GetProcessor(format)
	if err != nil {
		return nil, nil, fmt.Errorf("unsupported graph file %s: %w", path, err)
	}
	payload, err := processor.ProcessData(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to process data: %w", err)
	}
	return payload.Build()
}
