package ethdescriptor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/0xsequence/ethbundle/ethartifact"
	"github.com/0xsequence/ethbundle/ethdescriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenArtifact = `{
  "contractName": "Token",
  "abi": [ { "name": "transfer" } ],
  "deployedBytecode": "0x6001",
  "immutableReferences": {},
  "deployedSourceMap": "0:1:0"
}`

const vaultArtifact = `{
  "contractName": "Vault",
  "abi": [{"type":"function","name":"deposit","inputs":[],"outputs":[]}],
  "deployedBytecode": "0x60806040",
  "immutableReferences": {"12": [{"start": 40, "length": 32}]},
  "deployedSourceMap": "1:2:0:-:0;;"
}`

func testRegistry() *ethartifact.Registry {
	r := ethartifact.NewRegistry()
	r.MustAdd("Token", []byte(tokenArtifact))
	r.MustAdd("Vault", []byte(vaultArtifact))
	r.MustAdd("Bad", []byte(`{"abi": [`))
	return r
}

func TestExtract(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	d, err := e.Extract("Token")
	require.NoError(t, err)

	assert.Equal(t, "Token", d.ContractName)
	assert.Equal(t, `[{"name":"transfer"}]`, d.ABI)
	assert.Equal(t, "0x6001", d.Bytecode.Object)
	assert.Equal(t, "0:1:0", d.Bytecode.SourceMap)
	assert.JSONEq(t, `{}`, string(d.Bytecode.LinkReferences))
	assert.Nil(t, d.Bytecode.Opcodes)
}

func TestExtractCopiesFields(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	d, err := e.Extract("Vault")
	require.NoError(t, err)

	assert.Equal(t, `[{"type":"function","name":"deposit","inputs":[],"outputs":[]}]`, d.ABI)
	assert.True(t, json.Valid([]byte(d.ABI)))
	assert.JSONEq(t, `{"12":[{"start":40,"length":32}]}`, string(d.Bytecode.LinkReferences))
	assert.Equal(t, "0x60806040", d.Bytecode.Object)
	assert.Equal(t, "1:2:0:-:0;;", d.Bytecode.SourceMap)
}

func TestExtractABIKeepsSpelling(t *testing.T) {
	r := ethartifact.NewRegistry()
	r.MustAdd("Spelled", []byte(`{
		"abi": [ { "name": "\u0041", "value": 1.0, "gas": 1e2, "b": 1, "a": 2 } ],
		"deployedBytecode": "0x",
		"immutableReferences": {},
		"deployedSourceMap": ""
	}`))
	e := ethdescriptor.NewExtractor(r)

	d, err := e.Extract("Spelled")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"\u0041","value":1.0,"gas":1e2,"b":1,"a":2}]`, d.ABI)
}

func TestExtractFoundryWithoutImmutables(t *testing.T) {
	data, err := os.ReadFile("../ethartifact/testdata/Greeter.foundry.json")
	require.NoError(t, err)
	r := ethartifact.NewRegistry()
	r.MustAdd("Greeter", data)
	e := ethdescriptor.NewExtractor(r)

	d, err := e.Extract("Greeter")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(d.Bytecode.LinkReferences))
	assert.Equal(t, "0x6080604052348015600e575f80fd5b50600436", d.Bytecode.Object)
	assert.Equal(t, "58:110:0:-:0;;;;;;", d.Bytecode.SourceMap)
}

func TestExtractIsIdempotent(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	d1, err := e.Extract("Vault")
	require.NoError(t, err)
	d2, err := e.Extract("Vault")
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestExtractNotFound(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	d, err := e.Extract("Missing")
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, ethdescriptor.ErrArtifactNotFound))
	assert.False(t, errors.Is(err, ethdescriptor.ErrArtifactMalformed))

	var extractErr *ethdescriptor.ExtractError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "Missing", extractErr.Contract)
	assert.Contains(t, err.Error(), "Missing")
}

func TestExtractMalformed(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	_, err := e.Extract("Bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ethdescriptor.ErrArtifactMalformed))
	assert.True(t, errors.Is(err, ethartifact.ErrMalformed))
}

func TestExtractMissingField(t *testing.T) {
	r := ethartifact.NewRegistry()
	r.MustAdd("NoMap", []byte(`{"abi":[],"deployedBytecode":"0x","immutableReferences":{}}`))
	e := ethdescriptor.NewExtractor(r)

	_, err := e.Extract("NoMap")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ethdescriptor.ErrArtifactMalformed))
	assert.True(t, errors.Is(err, ethartifact.ErrMissingField))
	assert.Contains(t, err.Error(), "deployedSourceMap")
}

func TestExtractAll(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	results := e.ExtractAll(context.Background(), []string{"Token", "Missing", "Vault"})
	require.Len(t, results, 3)

	assert.Equal(t, "Token", results[0].Name)
	assert.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Descriptor)
	assert.Equal(t, "Token", results[0].Descriptor.ContractName)

	assert.Equal(t, "Missing", results[1].Name)
	assert.Nil(t, results[1].Descriptor)
	assert.True(t, errors.Is(results[1].Err, ethdescriptor.ErrArtifactNotFound))

	assert.Equal(t, "Vault", results[2].Name)
	assert.NoError(t, results[2].Err)
	require.NotNil(t, results[2].Descriptor)
	assert.Equal(t, "Vault", results[2].Descriptor.ContractName)

	assert.Equal(t, 2, results.Succeeded())
	assert.Equal(t, 1, results.Failed())
}

func TestExtractAllContinuesPastMalformed(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	results := e.ExtractAll(context.Background(), []string{"Bad", "Token", "Token"})
	require.Len(t, results, 3)

	assert.True(t, errors.Is(results[0].Err, ethdescriptor.ErrArtifactMalformed))
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, results[1].Descriptor, results[2].Descriptor)
}

func TestExtractAllConcurrentPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("C%02d", i)
		names = append(names, name)
		if i%7 == 3 {
			continue // leave a gap so some lookups fail
		}
		artifact := fmt.Sprintf(`{"abi":[{"name":"f%d"}],"deployedBytecode":"0x60%02x","immutableReferences":{},"deployedSourceMap":""}`, i, i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(artifact), 0o644))
	}

	sequential := ethdescriptor.NewExtractor(ethartifact.NewDirStore(dir)).ExtractAll(context.Background(), names)
	concurrent := ethdescriptor.NewExtractor(ethartifact.NewDirStore(dir), ethdescriptor.WithConcurrency(8)).ExtractAll(context.Background(), names)

	require.Len(t, concurrent, len(names))
	for i, name := range names {
		assert.Equal(t, name, concurrent[i].Name)
		assert.Equal(t, sequential[i].Descriptor, concurrent[i].Descriptor)
		assert.Equal(t, sequential[i].Err == nil, concurrent[i].Err == nil)
		if i%7 == 3 {
			assert.True(t, errors.Is(concurrent[i].Err, ethdescriptor.ErrArtifactNotFound))
		} else {
			require.NotNil(t, concurrent[i].Descriptor)
			assert.Equal(t, fmt.Sprintf(`[{"name":"f%d"}]`, i), concurrent[i].Descriptor.ABI)
		}
	}
}

func TestExtractAllCancelled(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.ExtractAll(ctx, []string{"Token", "Vault"})
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Nil(t, res.Descriptor)
		assert.True(t, errors.Is(res.Err, context.Canceled))
	}
	assert.Equal(t, 2, results.Failed())
}

func TestExtractWithOpcodes(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry(), ethdescriptor.WithOpcodes())

	d, err := e.Extract("Token")
	require.NoError(t, err)
	require.NotNil(t, d.Bytecode.Opcodes)
	assert.Equal(t, "PUSH1 0x01", *d.Bytecode.Opcodes)

	// unlinked library placeholders are not hex, opcodes stay uncomputed
	r := ethartifact.NewRegistry()
	r.MustAdd("Linked", []byte(`{"abi":[],"deployedBytecode":"0x73__Lib__________________________________3014","immutableReferences":{},"deployedSourceMap":""}`))
	e = ethdescriptor.NewExtractor(r, ethdescriptor.WithOpcodes())

	d, err = e.Extract("Linked")
	require.NoError(t, err)
	assert.Nil(t, d.Bytecode.Opcodes)
}

func TestDescriptorJSON(t *testing.T) {
	e := ethdescriptor.NewExtractor(testRegistry())

	d, err := e.Extract("Token")
	require.NoError(t, err)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contractName": "Token",
		"abi": "[{\"name\":\"transfer\"}]",
		"bytecode": {
			"linkReferences": {},
			"object": "0x6001",
			"opcodes": null,
			"sourceMap": "0:1:0"
		}
	}`, string(out))
}
