package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ctim"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/loader"
)

// ErrCodeWriteFailed reports an output file that could not be written.
const ErrCodeWriteFailed = "E007"

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	Output    string
	Canonical bool
}

// BuildResult summarizes a written bundle.
type BuildResult struct {
	BundleID string `json:"bundle_id"`
	Entities int    `json:"entities"`
	Digest   string `json:"digest"`
	Output   string `json:"output"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build <document>",
		Short: "Build a CTIM bundle from a document",
		Long: `Build a CTIM bundle from a YAML, JSON or CUE document.

The bundle is written to stdout, or to --output. Every invalid entity in
the document is reported; nothing is written unless all of them are valid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the bundle to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "write canonical JSON (sorted keys, no whitespace)")

	return cmd
}

func runBuild(cmd *cobra.Command, rootOpts *RootOptions, opts *BuildOptions, path string) error {
	formatter := rootOpts.formatter(cmd)

	res, err := loadAndBuild(cmd, rootOpts, formatter, path)
	if err != nil {
		return err
	}

	data, err := encodeBundle(res.Bundle, opts.Canonical)
	if err != nil {
		_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "encoding bundle", err)
	}

	if opts.Output == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return WrapExitError(ExitCommandError, "writing bundle", err)
		}
		formatter.VerboseLog("Built bundle %s with %d entities", res.Bundle.ID(), len(res.Entities))
		return nil
	}

	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", opts.Output, err), nil)
		return WrapExitError(ExitCommandError, "writing bundle", err)
	}

	digest, err := ir.Digest(res.Bundle.JSON())
	if err != nil {
		return WrapExitError(ExitCommandError, "digesting bundle", err)
	}
	result := BuildResult{
		BundleID: res.Bundle.ID(),
		Entities: len(res.Entities),
		Digest:   digest,
		Output:   opts.Output,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s bundle %s (%d entities) -> %s\n",
		okStyle.Render("✓ Built"), result.BundleID, result.Entities, result.Output)
	fmt.Fprintln(formatter.Writer, mutedStyle.Render("  digest "+result.Digest))
	return nil
}

// encodeBundle renders the bundle as indented JSON in entity key order, or
// as canonical JSON. The result ends with a newline.
func encodeBundle(b *ctim.Bundle, canonical bool) ([]byte, error) {
	var data []byte
	var err error
	if canonical {
		data, err = ir.MarshalCanonical(b.JSON())
	} else {
		var raw []byte
		raw, err = b.MarshalJSON()
		if err == nil {
			var buf bytes.Buffer
			err = json.Indent(&buf, raw, "", "  ")
			data = buf.Bytes()
		}
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// loadAndBuild loads and builds the document at path, reporting failures
// through formatter. Load failures are command errors; invalid entities are
// validation failures.
func loadAndBuild(cmd *cobra.Command, rootOpts *RootOptions, formatter *OutputFormatter, path string) (*loader.Result, error) {
	doc, err := loader.Load(path)
	if err != nil {
		code, message := loader.ErrCodeGeneric, err.Error()
		var le *loader.LoadError
		if errors.As(err, &le) {
			code, message = le.Code, le.Message
			if le.Pos.IsValid() {
				message = fmt.Sprintf("%s:%d:%d: %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), le.Message)
			}
		}
		_ = formatter.Error(code, message, nil)
		return nil, WrapExitError(ExitCommandError, "loading "+path, err)
	}
	formatter.VerboseLog("Loaded %s: %d entities", path, len(doc.Entities))

	ctx, err := rootOpts.context(cmd.Context())
	if err != nil {
		_ = formatter.Error(loader.ErrCodeSession, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "session", err)
	}

	res, err := loader.Build(ctx, doc)
	if err != nil {
		var berr *loader.BuildError
		if !errors.As(err, &berr) {
			_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "building "+path, err)
		}
		issues := issuesOf(berr)
		if err := outputIssues(formatter, issues); err != nil {
			return nil, err
		}
		return nil, NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}
	return res, nil
}
