package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/loader"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	BundleID string  `json:"bundle_id,omitempty"`
	Entities int     `json:"entities,omitempty"`
	Digest   string  `json:"digest,omitempty"`
	Issues   []Issue `json:"issues,omitempty"`
}

// Issue is one violation in a document. Index is -1 for the document's
// session and bundle sections.
type Issue struct {
	Index   int    `json:"index"`
	Entity  string `json:"entity"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i Issue) location() string {
	if i.Index < 0 {
		return i.Entity
	}
	return fmt.Sprintf("entities[%d] (%s)", i.Index, i.Entity)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a bundle document without writing it",
		Long: `Validate every entity of a bundle document.

All violations are reported at once. Exits 1 when the document describes
invalid entities and 2 when it cannot be read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	formatter := rootOpts.formatter(cmd)

	res, err := loadAndBuild(cmd, rootOpts, formatter, path)
	if err != nil {
		return err
	}

	digest, err := ir.Digest(res.Bundle.JSON())
	if err != nil {
		return WrapExitError(ExitCommandError, "digesting bundle", err)
	}
	result := ValidationResult{
		Valid:    true,
		BundleID: res.Bundle.ID(),
		Entities: len(res.Entities),
		Digest:   digest,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s %d entities in bundle %s\n",
		okStyle.Render("✓ Valid:"), result.Entities, result.BundleID)
	return nil
}

// issuesOf flattens a build error into one issue per violated field.
func issuesOf(berr *loader.BuildError) []Issue {
	var issues []Issue
	for _, e := range berr.Errors {
		var verr *schema.ValidationError
		if !errors.As(e.Err, &verr) {
			issues = append(issues, Issue{Index: e.Index, Entity: e.Name, Code: e.Code, Message: e.Err.Error()})
			continue
		}
		for _, is := range verr.Issues() {
			issues = append(issues, Issue{
				Index:   e.Index,
				Entity:  e.Name,
				Code:    e.Code,
				Path:    is.Path,
				Message: is.Message,
			})
		}
	}
	return issues
}

// outputIssues reports a failed validation.
func outputIssues(formatter *OutputFormatter, issues []Issue) error {
	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Issues: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: fmt.Sprintf("validation failed with %d error(s)", len(issues)),
			},
		})
	}

	// Text format
	fmt.Fprintln(formatter.Writer, failStyle.Render("✗ Validation failed"))
	fmt.Fprintln(formatter.Writer)
	for _, is := range issues {
		fmt.Fprintln(formatter.Writer, headerStyle.Render(is.location()))
		if is.Path != "" {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", codeStyle.Render(is.Code), is.Path, is.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s %s\n", codeStyle.Render(is.Code), is.Message)
		}
	}
	return nil
}
