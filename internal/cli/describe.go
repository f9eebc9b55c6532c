package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ctim"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/loader"
)

// KindInfo describes one entity kind.
type KindInfo struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	Class  string      `json:"class"`
	Tag    string      `json:"tag,omitempty"`
	Fields []FieldInfo `json:"fields,omitempty"`
}

// FieldInfo describes one schema field.
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	var choices bool

	cmd := &cobra.Command{
		Use:   "describe [kind]",
		Short: "List entity kinds or describe one kind's fields",
		Long: `Without arguments, list every entity kind. With a kind, list its fields,
their types and constraints. --choices lists the named value sets instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			switch {
			case choices:
				return describeChoices(formatter)
			case len(args) == 0:
				return describeKinds(formatter)
			default:
				return describeKind(formatter, args[0])
			}
		},
	}

	cmd.Flags().BoolVar(&choices, "choices", false, "list the named choice sets")

	return cmd
}

func kindInfo(def *ctim.Definition, withFields bool) KindInfo {
	info := KindInfo{
		Kind:  string(def.Kind),
		Name:  def.Name,
		Class: def.Class.String(),
		Tag:   def.TypeTag(),
	}
	if withFields {
		for _, f := range def.Schema.Fields {
			info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: f.Type.Describe(), Required: f.Required})
		}
	}
	return info
}

func describeKinds(formatter *OutputFormatter) error {
	var kinds []KindInfo
	for _, k := range ctim.Kinds() {
		def, err := ctim.Lookup(k)
		if err != nil {
			return WrapExitError(ExitCommandError, "describe", err)
		}
		kinds = append(kinds, kindInfo(def, false))
	}

	if formatter.Format == "json" {
		return formatter.Success(kinds)
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("KIND")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("CLASS")+"\t")
	for _, k := range kinds {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", k.Kind, k.Name, mutedStyle.Render(k.Class))
	}
	return w.Flush()
}

func describeKind(formatter *OutputFormatter, name string) error {
	def, err := ctim.Lookup(ctim.Kind(name))
	if err != nil {
		_ = formatter.Error(loader.ErrCodeUnknownKind, fmt.Sprintf("unknown entity kind %q", name), nil)
		return WrapExitError(ExitCommandError, "describe", err)
	}
	info := kindInfo(def, true)

	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	title := fmt.Sprintf("%s (%s, %s)", info.Name, info.Kind, info.Class)
	if info.Tag != "" {
		title += fmt.Sprintf(", type %q", info.Tag)
	}
	fmt.Fprintln(formatter.Writer, headerStyle.Render(title))

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 3, ' ', 0)
	for _, f := range info.Fields {
		required := ""
		if f.Required {
			required = codeStyle.Render("required")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t\n", f.Name, f.Type, required)
	}
	return w.Flush()
}

func describeChoices(formatter *OutputFormatter) error {
	choices := ctim.Choices()
	if formatter.Format == "json" {
		return formatter.Success(choices)
	}

	names := make([]string, 0, len(choices))
	for name := range choices {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "%s: %s\n", headerStyle.Render(name), strings.Join(choices[name], ", "))
	}
	return nil
}
