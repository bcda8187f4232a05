// Package schema implements an optional, off-by-default strict-mode
// validator for the JSON protocol's message envelope
// (`[1,"name",typeCode,seqid,body]`, spec.md §4.3/§6). It is a
// conformance/debugging aid, not a correctness requirement: the
// protocol package encodes and decodes messages independent of this
// package and works whether or not a caller validates through it.
// file: internal/schema/validator.go
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dkoosis/thriftrt/internal/logging"
)

//go:embed envelope_schema.json
var embeddedEnvelopeSchema []byte

// Validator compiles the embedded envelope schema once and validates
// decoded `[1,"name",type,seqid,body]` values against it.
type Validator struct {
	mu          sync.RWMutex
	schema      *jsonschema.Schema
	initialized bool
	logger      logging.Logger
}

func NewValidator(logger logging.Logger) *Validator {
	return &Validator{logger: logging.OrNoop(logger).WithField("component", "schema_validator")}
}

// Initialize compiles the embedded schema. Must succeed before Validate
// is called.
func (v *Validator) Initialize() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.initialized {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if err := compiler.AddResource("thriftrt://envelope.json", bytes.NewReader(embeddedEnvelopeSchema)); err != nil {
		return NewValidationError(ErrSchemaLoadFailed, "failed to add envelope schema resource", errors.WithStack(err))
	}
	compiled, err := compiler.Compile("thriftrt://envelope.json")
	if err != nil {
		return NewValidationError(ErrSchemaCompileFailed, "failed to compile envelope schema", errors.WithStack(err))
	}

	v.schema = compiled
	v.initialized = true
	v.logger.Info("schema validator initialized")
	return nil
}

func (v *Validator) IsInitialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// Validate parses data as JSON and checks it against the envelope
// schema. Callers wire this in ahead of internal/protocol/json decoding
// when strict-mode conformance checking is wanted.
func (v *Validator) Validate(data []byte) error {
	v.mu.RLock()
	schema := v.schema
	initialized := v.initialized
	v.mu.RUnlock()

	if !initialized {
		return NewValidationError(ErrValidationFailed, "schema validator not initialized", nil)
	}

	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return NewValidationError(ErrInvalidJSONFormat, "invalid JSON envelope", errors.WithStack(err))
	}

	if err := schema.Validate(instance); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return NewValidationError(ErrValidationFailed, valErr.Message, valErr)
		}
		return NewValidationError(ErrValidationFailed, "envelope validation failed", err)
	}
	return nil
}
