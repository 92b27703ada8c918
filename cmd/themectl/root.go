package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codr1/biolink/internal/color"
	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/render"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	keyStyle     = lipgloss.NewStyle().Width(28)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// themeFile is the YAML form of a single theme.
type themeFile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Tokens      map[string]string `yaml:"tokens"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "themectl",
		Short:         "Inspect theme tokens and theme files",
		Version:       version,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(out)

	var nearest int
	hexCmd := &cobra.Command{
		Use:   "hex <color>...",
		Short: "Convert colors to #rrggbb picker values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHex(cmd.OutOrStdout(), args, nearest)
		},
	}
	hexCmd.Flags().IntVarP(&nearest, "nearest", "n", 1, "number of closest named colors to show")

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "List every token with its default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd.OutOrStdout())
		},
	}

	var showAll bool
	resolveCmd := &cobra.Command{
		Use:   "resolve <theme.yaml>",
		Short: "Show a theme file's tokens resolved against the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := loadThemeFile(args[0])
			if err != nil {
				return err
			}
			return runResolve(cmd.OutOrStdout(), theme, showAll)
		},
	}
	resolveCmd.Flags().BoolVarP(&showAll, "all", "a", false, "include tokens left at their default")

	cssCmd := &cobra.Command{
		Use:   "css <theme.yaml>",
		Short: "Print the :root declaration block for a theme file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := loadThemeFile(args[0])
			if err != nil {
				return err
			}
			return runCSS(cmd.OutOrStdout(), theme)
		},
	}

	root.AddCommand(hexCmd, tokensCmd, resolveCmd, cssCmd)
	return root
}

func swatch(value string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(color.ToHex(value))).Render("    ")
}

func runHex(out io.Writer, values []string, nearest int) error {
	for _, value := range values {
		hex := color.ToHex(value)
		if _, ok := color.Parse(value); !ok {
			fmt.Fprintf(out, "%s %s %s\n", keyStyle.Render(value), hex, warnStyle.Render("(unsupported, fallback)"))
			continue
		}

		names := make([]string, 0, nearest)
		for _, match := range color.Nearest(value, nearest) {
			names = append(names, fmt.Sprintf("%s %.3f", match.Name, match.Distance))
		}
		fmt.Fprintf(out, "%s %s %s %s\n", keyStyle.Render(value), hex, swatch(value), mutedStyle.Render(strings.Join(names, ", ")))
	}
	return nil
}

func runTokens(out io.Writer) error {
	for _, group := range models.TokenGroups() {
		fmt.Fprintln(out, headingStyle.Render(group.Title))
		for _, field := range group.Fields {
			def, _ := models.LookupToken(field.Key)
			line := fmt.Sprintf("  %s %s", keyStyle.Render(string(field.Key)), def.Default)
			if field.Kind == models.TokenKindColor {
				line += " " + swatch(def.Default)
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

func runResolve(out io.Writer, theme models.Theme, showAll bool) error {
	fmt.Fprintln(out, headingStyle.Render(theme.Name))
	resolved := models.Resolve(theme)

	for _, key := range models.AllKeys() {
		value := resolved[key]
		_, overridden := theme.Tokens.Known[key]
		if !overridden && !showAll {
			continue
		}
		marker := " "
		if overridden {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s %s", marker, keyStyle.Render(string(key)), value)
		if def, ok := models.LookupToken(key); ok && def.Kind == models.TokenKindColor {
			line += fmt.Sprintf(" %s %s", swatch(value), color.ToHex(value))
		}
		fmt.Fprintln(out, line)
	}

	for _, key := range theme.Tokens.Keys() {
		if value, ok := theme.Tokens.Unknown[key]; ok {
			fmt.Fprintf(out, "? %s %s\n", keyStyle.Render(key), value)
		}
	}

	for _, warning := range models.ContrastWarnings(resolved) {
		fmt.Fprintln(out, warnStyle.Render("warning: "+warning.String()))
	}
	return nil
}

func runCSS(out io.Writer, theme models.Theme) error {
	declarations := render.StyleDeclarations(render.VarsFor(theme))
	fmt.Fprintln(out, ":root {")
	for _, declaration := range strings.Split(declarations, ";") {
		if declaration == "" {
			continue
		}
		name, value, _ := strings.Cut(declaration, ":")
		fmt.Fprintf(out, "  %s: %s;\n", name, value)
	}
	fmt.Fprintln(out, "}")
	return nil
}

func loadThemeFile(path string) (models.Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Theme{}, fmt.Errorf("read theme file: %w", err)
	}
	return parseThemeFile(data)
}

func parseThemeFile(data []byte) (models.Theme, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file themeFile
	if err := decoder.Decode(&file); err != nil {
		return models.Theme{}, fmt.Errorf("parse theme file: %w", err)
	}

	input := models.ThemeInput{Name: file.Name, Tokens: models.ParseTokens(file.Tokens)}
	if description := strings.TrimSpace(file.Description); description != "" {
		input.Description = &description
	}
	if err := input.Validate(); err != nil {
		return models.Theme{}, err
	}
	return models.Theme{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Tokens:      input.Tokens.Compact(),
	}, nil
}
