package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/0xsequence/ethbundle/ethartifact"
	"github.com/0xsequence/ethbundle/ethconfig"
	"github.com/0xsequence/ethbundle/ethdescriptor"
)

const (
	flagExtractConfig      = "config"
	flagExtractBuildDir    = "build-dir"
	flagExtractFormat      = "format"
	flagExtractOpcodes     = "opcodes"
	flagExtractConcurrency = "concurrency"
	flagExtractVerbose     = "verbose"

	formatABI        = "abi"
	formatDescriptor = "descriptor"
)

func init() {
	rootCmd.AddCommand(NewExtractCmd())
}

type extract struct {
}

// NewExtractCmd returns the command that turns every contract listed in the
// config into a deployment descriptor.
func NewExtractCmd() *cobra.Command {
	c := &extract{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the abi and bytecode bundle of every contract listed in the config",
		Args:  cobra.NoArgs,
		RunE:  c.Run,
	}

	cmd.Flags().StringP(flagExtractConfig, "c", "contracts.json", "path to the contract list config (.json or .toml)")
	cmd.Flags().StringP(flagExtractBuildDir, "d", "build/contracts", "directory holding the <contract>.json build artifacts")
	cmd.Flags().StringP(flagExtractFormat, "f", formatABI, "output format: abi or descriptor")
	cmd.Flags().Bool(flagExtractOpcodes, false, "disassemble the deployed bytecode into the bundle opcodes")
	cmd.Flags().IntP(flagExtractConcurrency, "n", 1, "number of artifacts to load at once")
	cmd.Flags().BoolP(flagExtractVerbose, "v", false, "debug logging")

	return cmd
}

func (c *extract) Run(cmd *cobra.Command, args []string) error {
	fConfig, err := cmd.Flags().GetString(flagExtractConfig)
	if err != nil {
		return err
	}
	fBuildDir, err := cmd.Flags().GetString(flagExtractBuildDir)
	if err != nil {
		return err
	}
	fFormat, err := cmd.Flags().GetString(flagExtractFormat)
	if err != nil {
		return err
	}
	fOpcodes, err := cmd.Flags().GetBool(flagExtractOpcodes)
	if err != nil {
		return err
	}
	fConcurrency, err := cmd.Flags().GetInt(flagExtractConcurrency)
	if err != nil {
		return err
	}
	fVerbose, err := cmd.Flags().GetBool(flagExtractVerbose)
	if err != nil {
		return err
	}

	if fFormat != formatABI && fFormat != formatDescriptor {
		return fmt.Errorf("error: invalid --format %q, expecting %s or %s", fFormat, formatABI, formatDescriptor)
	}
	if fConcurrency < 1 {
		return errors.New("error: --concurrency must be at least 1")
	}

	level := slog.LevelWarn
	if fVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})).
		With("batch", uuid.NewString())

	cfg, err := ethconfig.ReadConfig(fConfig)
	if err != nil {
		return err
	}
	if len(cfg.SmartContracts) == 0 {
		log.Warn("no smart_contracts listed, nothing to extract", "config", fConfig)
		return nil
	}
	if dups := cfg.Duplicates(); len(dups) > 0 {
		log.Warn("contracts listed more than once", "contracts", dups)
	}

	opts := []ethdescriptor.Option{
		ethdescriptor.WithLogger(log),
		ethdescriptor.WithConcurrency(fConcurrency),
	}
	if fOpcodes {
		opts = append(opts, ethdescriptor.WithOpcodes())
	}
	extractor := ethdescriptor.NewExtractor(ethartifact.NewDirStore(fBuildDir), opts...)

	log.Debug("extracting contracts", "config", fConfig, "buildDir", fBuildDir, "contracts", len(cfg.SmartContracts))
	results := extractor.ExtractAll(cmd.Context(), cfg.SmartContracts)

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(stderr, "error: unable to import %s: %v\n", res.Name, cause(res.Err))
			continue
		}

		switch fFormat {
		case formatDescriptor:
			out, err := prettyJSON(res.Descriptor)
			if err != nil {
				fmt.Fprintf(stderr, "error: unable to print %s: %v\n", res.Name, err)
				continue
			}
			fmt.Fprintln(stdout, out)
		default:
			fmt.Fprintln(stdout, res.Descriptor.ABI)
		}
	}

	log.Debug("extraction done", "succeeded", results.Succeeded(), "failed", results.Failed())

	if results.Succeeded() == 0 {
		return fmt.Errorf("error: all %d contracts failed to import", len(results))
	}
	return nil
}

// cause drops the contract name an ExtractError leads with, as the
// diagnostic line already names the contract.
func cause(err error) error {
	var extractErr *ethdescriptor.ExtractError
	if errors.As(err, &extractErr) {
		if extractErr.Kind == nil {
			return extractErr.Err
		}
		return fmt.Errorf("%w: %w", extractErr.Kind, extractErr.Err)
	}
	return err
}
