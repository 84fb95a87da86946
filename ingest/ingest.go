// Package ingest decodes oracle output into graph payloads. An oracle may
// answer with JSON (possibly wrapped in prose), CSV or plain sentences; each
// format has a DataProcessor.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/TFMV/solmap/models"
)

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw oracle output and returns a graph payload
	ProcessData(data []byte) (*Payload, error)

	// GetName returns the name of the processor
	GetName() string
}

// Payload is the node and edge lists an oracle returns, before validation
type Payload struct {
	Nodes []models.Node `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

// Build validates the payload into a graph. See models.BuildGraph.
func (p *Payload) Build() (*models.Graph, *models.BuildReport, error) {
	return models.BuildGraph(p.Nodes, p.Edges)
}

// ExtractJSON returns the outermost {...} object of text, the way a model
// answer often wraps its JSON in prose or code fences
func ExtractJSON(text []byte) ([]byte, error) {
	start := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, models.NewInputError(models.ErrMalformedPayload, "no JSON object in oracle response")
	}
	return text[start : end+1], nil
}

// JSONProcessor handles {"nodes": [...], "edges": [...]} payloads
type JSONProcessor struct{}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor() *JSONProcessor {
	return &JSONProcessor{}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data. Both lists must be present; edges may use
// source/target instead of from/to.
func (p *JSONProcessor) ProcessData(data []byte) (*Payload, error) {
	raw, err := ExtractJSON(data)
	if err != nil {
		return nil, err
	}

	var graphData struct {
		Nodes *[]struct {
			ID    json.RawMessage `json:"id"`
			Label string          `json:"label"`
			X     float64         `json:"x"`
			Y     float64         `json:"y"`
		} `json:"nodes"`
		Edges *[]struct {
			From   json.RawMessage `json:"from"`
			To     json.RawMessage `json:"to"`
			Source json.RawMessage `json:"source"`
			Target json.RawMessage `json:"target"`
			Label  string          `json:"label"`
		} `json:"edges"`
	}

	if err := json.Unmarshal(raw, &graphData); err != nil {
		return nil, models.NewInputError(fmt.Errorf("%w: %v", models.ErrMalformedPayload, err), "error parsing JSON")
	}
	if graphData.Nodes == nil {
		return nil, models.NewInputError(models.ErrMalformedPayload, "missing nodes")
	}
	if graphData.Edges == nil {
		return nil, models.NewInputError(models.ErrMalformedPayload, "missing edges")
	}

	payload := &Payload{
		Nodes: make([]models.Node, 0, len(*graphData.Nodes)),
		Edges: make([]models.Edge, 0, len(*graphData.Edges)),
	}
	for _, n := range *graphData.Nodes {
		payload.Nodes = append(payload.Nodes, models.Node{
			ID:    idString(n.ID),
			Label: n.Label,
			X:     n.X,
			Y:     n.Y,
		})
	}
	for _, e := range *graphData.Edges {
		from, to := idString(e.From), idString(e.To)
		if from == "" {
			from = idString(e.Source)
		}
		if to == "" {
			to = idString(e.Target)
		}
		payload.Edges = append(payload.Edges, models.Edge{From: from, To: to, Label: e.Label})
	}

	return payload, nil
}

// idString accepts ids written as strings or numbers
func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// CSVProcessor handles one relationship per row: from,to[,label]
type CSVProcessor struct{}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor() *CSVProcessor {
	return &CSVProcessor{}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data. The header names the columns.
func (p *CSVProcessor) ProcessData(data []byte) (*Payload, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, models.NewInputError(fmt.Errorf("%w: %v", models.ErrMalformedPayload, err), "error reading CSV header")
	}

	sourceIdx, targetIdx, labelIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src", "cause":
			sourceIdx = i
		case "target", "to", "dst", "effect":
			targetIdx = i
		case "label", "relationship", "type":
			labelIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, models.NewInputError(models.ErrMalformedPayload, "CSV must have source and target columns")
	}

	b := newBuilder()
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.NewInputError(fmt.Errorf("%w: %v", models.ErrMalformedPayload, err), "error reading CSV line %d", line)
		}
		if sourceIdx >= len(record) || targetIdx >= len(record) {
			continue
		}
		label := ""
		if labelIdx >= 0 && labelIdx < len(record) {
			label = strings.TrimSpace(record[labelIdx])
		}
		b.relate(record[sourceIdx], record[targetIdx], label)
	}

	return b.payload(), nil
}

// builder accumulates a payload from named concepts, in first seen order
type builder struct {
	seen map[string]bool
	out  Payload
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]bool)}
}

func (b *builder) node(name string) string {
	name = strings.TrimSpace(name)
	id := Slug(name)
	if id == "" {
		return ""
	}
	if !b.seen[id] {
		b.seen[id] = true
		b.out.Nodes = append(b.out.Nodes, models.Node{ID: id, Label: name})
	}
	return id
}

func (b *builder) relate(from, to, label string) {
	f, t := b.node(from), b.node(to)
	if f == "" || t == "" {
		return
	}
	b.out.Edges = append(b.out.Edges, models.Edge{From: f, To: t, Label: label})
}

func (b *builder) payload() *Payload {
	p := b.out
	if p.Nodes == nil {
		p.Nodes = []models.Node{}
	}
	if p.Edges == nil {
		p.Edges = []models.Edge{}
	}
	return &p
}

// Slug turns a concept name into a node id: lower case words joined by _
func Slug(name string) string {
	var sb strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	return sb.String()
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(), nil
	case "csv":
		return NewCSVProcessor(), nil
	case "text", "pattern", "log":
		return NewPatternProcessor(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
