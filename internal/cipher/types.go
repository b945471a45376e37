package cipher

import (
	"context"
	"errors"
	"fmt"

	"github.com/RowanDark/cryptkit/internal/observability/tracing"
)

// ErrMissingParameter is returned when an operation needs a parameter the
// caller did not supply.
var ErrMissingParameter = errors.New("missing parameter")

// OperationType defines the category of transformation operation
type OperationType string

const (
	OperationTypeEncode  OperationType = "encode"
	OperationTypeDecode  OperationType = "decode"
	OperationTypeEncrypt OperationType = "encrypt"
	OperationTypeDecrypt OperationType = "decrypt"
	OperationTypePad     OperationType = "pad"
	OperationTypeUnpad   OperationType = "unpad"
	OperationTypeAnalyze OperationType = "analyze"
)

// Operation represents a single transformation operation that can be applied to data
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Execute applies the operation to the input data
	Execute(ctx context.Context, input []byte, params map[string]any) ([]byte, error)

	// Reverse returns the inverse operation if available
	Reverse() (Operation, bool)
}

// OperationConfig represents configuration for an operation in a pipeline
type OperationConfig struct {
	Name       string         `json:"name" yaml:"name"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Pipeline represents a chain of operations that can be applied sequentially
type Pipeline struct {
	Operations []OperationConfig `json:"operations" yaml:"operations"`
	Reversible bool              `json:"reversible" yaml:"reversible"`
}

// Execute runs the pipeline on the input data
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "cipher.Pipeline.Execute", tracing.WithAttributes(map[string]any{
		"pipeline.steps":      len(p.Operations),
		"pipeline.input_size": len(input),
	}))
	defer span.End()

	result := input
	for i, opConfig := range p.Operations {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return nil, err
		}

		op, exists := GetOperation(opConfig.Name)
		if !exists {
			err := fmt.Errorf("unknown operation at step %d: %s", i, opConfig.Name)
			span.RecordError(err)
			return nil, err
		}

		stepCtx, stepSpan := tracing.StartSpan(ctx, "cipher.op."+opConfig.Name, tracing.WithAttributes(map[string]any{
			"step.index": i,
		}))
		out, err := op.Execute(stepCtx, result, opConfig.Parameters)
		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.End()
			span.RecordError(err)
			return nil, fmt.Errorf("operation %s failed at step %d: %w", opConfig.Name, i, err)
		}
		stepSpan.SetAttribute("step.output_size", len(out))
		stepSpan.End()
		result = out
	}

	return result, nil
}

// Reverse creates a reversed pipeline if all operations are reversible
func (p *Pipeline) Reverse() (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline is not reversible")
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, opConfig := range p.Operations {
		op, exists := GetOperation(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("unknown operation: %s", opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s is not reversible", opConfig.Name)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: opConfig.Parameters,
		}
	}

	return reversed, nil
}

// Recipe represents a named, reusable transformation pipeline
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline" yaml:"pipeline"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	UpdatedAt   string   `json:"updated_at" yaml:"updated_at"`
}

// DetectionResult represents one hypothesis about what the input is
type DetectionResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
	Operation  string  `json:"operation"` // Suggested operation name to apply
	// Prerequisite is the decode step that produced the bytes the hypothesis
	// was tested against, empty when it was the input itself
	Prerequisite string `json:"prerequisite,omitempty"`
}

// Detector identifies the encoding or cipher of input data
type Detector interface {
	// Detect returns ranked hypotheses for the input
	Detect(ctx context.Context, input []byte) ([]DetectionResult, error)

	// SupportedEncodings returns a list of encodings this detector can identify
	SupportedEncodings() []string
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}
