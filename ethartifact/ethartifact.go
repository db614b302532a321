package ethartifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goware/superr"
)

var (
	ErrNotFound     = errors.New("ethartifact: artifact not found")
	ErrMalformed    = errors.New("ethartifact: artifact malformed")
	ErrMissingField = errors.New("ethartifact: missing required field")
)

// RawArtifact is a compiled contract build artifact as written by truffle or
// solc-based toolchains. Foundry artifacts are normalized into the same shape.
type RawArtifact struct {
	ContractName        string          `json:"contractName"`
	ABI                 json.RawMessage `json:"abi"`
	Bytecode            string          `json:"bytecode"`
	DeployedBytecode    *string         `json:"deployedBytecode"`
	ImmutableReferences json.RawMessage `json:"immutableReferences"`
	DeployedSourceMap   *string         `json:"deployedSourceMap"`
}

// Validate ensures the fields a deployment descriptor is built from are present.
func (a RawArtifact) Validate() error {
	if isNull(a.ABI) {
		return missingField("abi")
	}
	if isNull(a.ImmutableReferences) {
		return missingField("immutableReferences")
	}
	if a.DeployedBytecode == nil {
		return missingField("deployedBytecode")
	}
	if a.DeployedSourceMap == nil {
		return missingField("deployedSourceMap")
	}
	return nil
}

type FoundryRawArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
	DeployedBytecode struct {
		Object              *string         `json:"object"`
		SourceMap           *string         `json:"sourceMap"`
		ImmutableReferences json.RawMessage `json:"immutableReferences"`
	} `json:"deployedBytecode"`
	Metadata struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	} `json:"metadata"`
}

func (f FoundryRawArtifact) ToRawArtifact() RawArtifact {
	// Contract name is the only value in the compilation target map
	var contractName string
	if len(f.Metadata.Settings.CompilationTarget) == 1 {
		for _, v := range f.Metadata.Settings.CompilationTarget {
			contractName = v
		}
	}

	// forge leaves out immutableReferences when the contract has none
	immutableReferences := f.DeployedBytecode.ImmutableReferences
	if immutableReferences == nil {
		immutableReferences = json.RawMessage(`{}`)
	}

	return RawArtifact{
		ContractName:        contractName,
		ABI:                 f.ABI,
		Bytecode:            f.Bytecode.Object,
		DeployedBytecode:    f.DeployedBytecode.Object,
		ImmutableReferences: immutableReferences,
		DeployedSourceMap:   f.DeployedBytecode.SourceMap,
	}
}

// ParseArtifactJSON decodes a truffle-style artifact, falling back to the
// foundry layout, and checks that all required fields are present.
func ParseArtifactJSON(data []byte) (RawArtifact, error) {
	var artifact RawArtifact
	err := json.Unmarshal(data, &artifact)
	if err != nil {
		// Try parsing as foundry artifact
		var foundryArtifact FoundryRawArtifact
		if foundryErr := json.Unmarshal(data, &foundryArtifact); foundryErr != nil {
			// Return the original error
			return RawArtifact{}, superr.New(ErrMalformed, err)
		}
		artifact = foundryArtifact.ToRawArtifact()
	}

	if err := artifact.Validate(); err != nil {
		return RawArtifact{}, err
	}
	return artifact, nil
}

func MustParseArtifactJSON(data []byte) RawArtifact {
	artifact, err := ParseArtifactJSON(data)
	if err != nil {
		panic(err)
	}
	return artifact
}

func ParseArtifactFile(path string) (RawArtifact, error) {
	filedata, err := os.ReadFile(path)
	if err != nil {
		return RawArtifact{}, err
	}
	return ParseArtifactJSON(filedata)
}

func missingField(name string) error {
	return fmt.Errorf("%w: %w '%s'", ErrMalformed, ErrMissingField, name)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
