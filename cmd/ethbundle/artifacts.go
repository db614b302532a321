package main

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/0xsequence/ethbundle/ethartifact"
)

const (
	flagArtifactsFile     = "file"
	flagArtifactsAbi      = "abi"
	flagArtifactsBytecode = "bytecode"
	flagArtifactsMethods  = "methods"
)

func init() {
	rootCmd.AddCommand(NewArtifactsCmd())
}

type artifacts struct {
}

func NewArtifactsCmd() *cobra.Command {
	c := &artifacts{}
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Print the contract abi, bytecode or method signatures from a truffle or foundry artifacts file",
		Args:  cobra.NoArgs,
		RunE:  c.Run,
	}

	cmd.Flags().String(flagArtifactsFile, "", "path to contract artifacts file (required)")
	cmd.Flags().Bool(flagArtifactsAbi, false, "abi")
	cmd.Flags().Bool(flagArtifactsBytecode, false, "bytecode")
	cmd.Flags().Bool(flagArtifactsMethods, false, "method selectors and signatures")

	return cmd
}

func (c *artifacts) Run(cmd *cobra.Command, args []string) error {
	fFile, _ := cmd.Flags().GetString(flagArtifactsFile)
	fAbi, _ := cmd.Flags().GetBool(flagArtifactsAbi)
	fBytecode, _ := cmd.Flags().GetBool(flagArtifactsBytecode)
	fMethods, _ := cmd.Flags().GetBool(flagArtifactsMethods)

	if fFile == "" {
		help(cmd)
		return errors.New("error: please pass --file")
	}
	selected := 0
	for _, f := range []bool{fAbi, fBytecode, fMethods} {
		if f {
			selected++
		}
	}
	if selected != 1 {
		help(cmd)
		return errors.New("error: please pass exactly one of --abi, --bytecode or --methods")
	}

	artifact, err := ethartifact.ParseArtifactFile(fFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if fAbi {
		fmt.Fprintln(out, string(artifact.ABI))
	}

	if fBytecode {
		fmt.Fprintln(out, artifact.Bytecode)
	}

	if fMethods {
		parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
		if err != nil {
			return fmt.Errorf("unable to parse abi json in artifact: %w", err)
		}
		names := make([]string, 0, len(parsed.Methods))
		for name := range parsed.Methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := parsed.Methods[name]
			fmt.Fprintf(out, "%s %s\n", hexutil.Encode(m.ID), m.Sig)
		}
	}

	return nil
}
