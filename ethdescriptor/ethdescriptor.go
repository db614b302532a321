package ethdescriptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/0xsequence/ethbundle/ethartifact"
	"golang.org/x/sync/errgroup"
)

// Descriptor is everything a deployer needs from a contract's build
// artifact: the ABI as a JSON string and the runtime bytecode bundle.
type Descriptor struct {
	ContractName string         `json:"contractName"`
	ABI          string         `json:"abi"`
	Bytecode     BytecodeBundle `json:"bytecode"`
}

type BytecodeBundle struct {
	LinkReferences json.RawMessage `json:"linkReferences"`
	Object         string          `json:"object"`

	// Opcodes is nil unless the Extractor was created WithOpcodes.
	Opcodes *string `json:"opcodes"`

	SourceMap string `json:"sourceMap"`
}

type Option func(*Extractor)

func WithLogger(log *slog.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithConcurrency sets how many artifacts ExtractAll loads at once.
func WithConcurrency(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithOpcodes disassembles the deployed bytecode into the bundle's Opcodes.
func WithOpcodes() Option {
	return func(e *Extractor) {
		e.opcodes = true
	}
}

type Extractor struct {
	store       ethartifact.Store
	log         *slog.Logger
	concurrency int
	opcodes     bool
}

func NewExtractor(store ethartifact.Store, opts ...Option) *Extractor {
	e := &Extractor{
		store:       store,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Extract(contractName string) (*Descriptor, error) {
	data, err := e.store.Load(contractName)
	if err != nil {
		if errors.Is(err, ethartifact.ErrNotFound) {
			return nil, &ExtractError{Contract: contractName, Kind: ErrArtifactNotFound, Err: err}
		}
		return nil, &ExtractError{Contract: contractName, Kind: ErrArtifactMalformed, Err: err}
	}

	artifact, err := ethartifact.ParseArtifactJSON(data)
	if err != nil {
		return nil, &ExtractError{Contract: contractName, Kind: ErrArtifactMalformed, Err: err}
	}

	var abiJSON bytes.Buffer
	if err := json.Compact(&abiJSON, artifact.ABI); err != nil {
		return nil, &ExtractError{Contract: contractName, Kind: ErrSerialization, Err: err}
	}

	descriptor := &Descriptor{
		ContractName: contractName,
		ABI:          abiJSON.String(),
		Bytecode: BytecodeBundle{
			LinkReferences: artifact.ImmutableReferences,
			Object:         *artifact.DeployedBytecode,
			SourceMap:      *artifact.DeployedSourceMap,
		},
	}

	if e.opcodes {
		opcodes, err := Disassemble(descriptor.Bytecode.Object)
		if err != nil {
			e.log.Warn("opcodes not computed", "contract", contractName, "err", err)
		} else {
			descriptor.Bytecode.Opcodes = &opcodes
		}
	}

	e.log.Debug("extracted artifact", "contract", contractName, "abi", len(descriptor.ABI), "bytecode", len(descriptor.Bytecode.Object))

	return descriptor, nil
}

// Result is the outcome of extracting one contract: exactly one of
// Descriptor and Err is set.
type Result struct {
	Name       string
	Descriptor *Descriptor
	Err        error
}

type Results []Result

func (r Results) Succeeded() int {
	n := 0
	for _, res := range r {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r Results) Failed() int {
	return len(r) - r.Succeeded()
}

// ExtractAll extracts every name and returns one Result per name in input
// order. A failing contract never stops the others.
func (e *Extractor) ExtractAll(ctx context.Context, names []string) Results {
	results := make(Results, len(names))

	g := &errgroup.Group{}
	g.SetLimit(e.concurrency)

	for i, name := range names {
		results[i].Name = name

		if err := ctx.Err(); err != nil {
			results[i].Err = &ExtractError{Contract: name, Err: err}
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = &ExtractError{Contract: name, Err: err}
				return nil
			}
			descriptor, err := e.Extract(name)
			if err != nil {
				e.log.Debug("extract failed", "contract", name, "err", err)
				results[i].Err = err
				return nil
			}
			results[i].Descriptor = descriptor
			return nil
		})
	}

	g.Wait()
	return results
}
