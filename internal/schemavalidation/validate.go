// Package schemavalidation checks a physjitter evidence chain's JSON wire
// form against an embedded JSON Schema before the chain package attempts
// to recompute and compare chain_mac.
//
// Catching a malformed field here is cheaper than a mac-mismatch error,
// and it points the caller at the actual broken field instead of just
// "verification failed".
package schemavalidation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed chain.schema.json
var chainSchemaJSON []byte

const chainSchemaURL = "physjitter/v1/chain.schema.json"

var (
	chainSchemaOnce sync.Once
	chainSchema     *jsonschema.Schema
	chainSchemaErr  error
)

func compiledChainSchema() (*jsonschema.Schema, error) {
	chainSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(chainSchemaURL, bytes.NewReader(chainSchemaJSON)); err != nil {
			chainSchemaErr = fmt.Errorf("schemavalidation: add embedded schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile(chainSchemaURL)
		if err != nil {
			chainSchemaErr = fmt.Errorf("schemavalidation: compile embedded schema: %w", err)
			return
		}
		chainSchema = schema
	})
	return chainSchema, chainSchemaErr
}

// ValidateChainJSON checks data against the physjitter evidence chain
// wire-format schema. It returns a descriptive error on the first
// structural problem found, before any chain_mac recomputation happens.
func ValidateChainJSON(data []byte) error {
	schema, err := compiledChainSchema()
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("schemavalidation: unmarshal instance: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schemavalidation: chain document failed validation: %w", err)
	}
	return nil
}
