// Package cli implements the ctim-bundle-builder command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/config"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/identity"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Session overrides; empty values keep the configured component.
	ExternalIDPrefix string
	Source           string
	SourceURI        string

	// Generator replaces the random transient id generator when set.
	Generator identity.Generator

	config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ctim-bundle-builder CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctim-bundle-builder",
		Short: "Build and validate CTIM bundles",
		Long: `Build CTIM bundles from YAML, JSON or CUE documents.

Every entity is validated against its CTIM schema, stamped with the
configured source and given transient and deterministic external ids.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.configure(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.ExternalIDPrefix, "prefix", "", "external id prefix")
	cmd.PersistentFlags().StringVar(&opts.Source, "source", "", "source stamped on entities")
	cmd.PersistentFlags().StringVar(&opts.SourceURI, "source-uri", "", "source URI stamped on entities")

	// Add subcommands
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))

	return cmd
}

// configure resolves the configuration and installs the logger.
func (o *RootOptions) configure(logOutput io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	cfg.Override(o.ExternalIDPrefix, o.Source, o.SourceURI)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	level, _ := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level})))

	o.config = cfg
	return nil
}

// session returns the effective session.
func (o *RootOptions) session() session.Session {
	if o.config == nil {
		return session.Default()
	}
	return o.config.Session
}

// context returns a context carrying the effective session and generator.
func (o *RootOptions) context(parent context.Context) (context.Context, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, err := session.WithSession(parent, o.session())
	if err != nil {
		return nil, err
	}
	if o.Generator != nil {
		ctx = identity.WithGenerator(ctx, o.Generator)
	}
	return ctx, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
