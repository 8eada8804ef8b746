package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenerateDocs writes shell completions to dir/completions and a man page
// to dir/man.
func GenerateDocs(root *cobra.Command, dir string) error {
	if err := writeCompletions(root, filepath.Join(dir, "completions")); err != nil {
		return err
	}
	return writeMan(root, filepath.Join(dir, "man"))
}

func writeCompletions(root *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := root.Name()
	gens := []struct {
		file string
		gen  func(path string) error
	}{
		{name + ".bash", func(p string) error { return root.GenBashCompletionFileV2(p, true) }},
		{"_" + name, root.GenZshCompletionFile},
		{name + ".fish", func(p string) error { return root.GenFishCompletionFile(p, true) }},
		{name + ".ps1", root.GenPowerShellCompletionFileWithDesc},
	}
	for _, g := range gens {
		if err := g.gen(filepath.Join(dir, g.file)); err != nil {
			return fmt.Errorf("completion %s: %w", g.file, err)
		}
	}
	return nil
}

func writeMan(root *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := root.Name()

	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(name) + "\" \"1\" \"\" \"awake " + Version + "\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + name + " \\- " + roff(root.Short) + "\n")
	b.WriteString(".SH SYNOPSIS\n.B " + name + "\n[\\fIcommand\\fR] [\\fIflags\\fR]\n")
	b.WriteString(".SH DESCRIPTION\n" + roff(root.Long) + "\n")

	b.WriteString(".SH COMMANDS\n")
	for _, c := range root.Commands() {
		if !c.IsAvailableCommand() {
			continue
		}
		b.WriteString(".TP\n\\fB" + c.Name() + "\\fR\n" + roff(c.Short) + "\n")
	}

	b.WriteString(".SH OPTIONS\n")
	writeFlags(&b, root.NonInheritedFlags())
	writeCommandFlags(&b, root)

	b.WriteString(".SH FILES\n.TP\n\\fI$XDG_CONFIG_HOME/awake/config.toml\\fR\nConfiguration file. YAML is accepted with a .yaml or .yml extension.\n")
	b.WriteString(".SH EXAMPLES\n")
	b.WriteString(".TP\n\\fB" + name + "\\fR\nStart the interactive dashboard.\n")
	b.WriteString(".TP\n\\fB" + name + " -d 2h30m\\fR\nKeep the system awake for 2 hours 30 minutes.\n")
	b.WriteString(".TP\n\\fB" + name + " run --headless --until 17:00\\fR\nRun without the dashboard until 5 PM.\n")
	b.WriteString(".TP\n\\fB" + name + " check\\fR\nShow whether the schedule allows running now.\n")
	return os.WriteFile(filepath.Join(dir, name+".1"), []byte(b.String()), 0o644)
}

// writeCommandFlags adds a subsection for every subcommand with flags of
// its own, descending into nested commands.
func writeCommandFlags(b *strings.Builder, parent *cobra.Command) {
	for _, c := range parent.Commands() {
		if !c.IsAvailableCommand() {
			continue
		}
		if fs := c.NonInheritedFlags(); hasVisibleFlags(fs) {
			b.WriteString(".SS \"" + roff(c.CommandPath()) + "\"\n")
			writeFlags(b, fs)
		}
		writeCommandFlags(b, c)
	}
}

func hasVisibleFlags(fs *pflag.FlagSet) bool {
	visible := false
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden && f.Name != "help" {
			visible = true
		}
	})
	return visible
}

func writeFlags(b *strings.Builder, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		names := "\\-\\-" + f.Name
		if f.Shorthand != "" {
			names = "\\-" + f.Shorthand + ", " + names
		}
		if t := f.Value.Type(); t != "bool" {
			names += " \\fI" + t + "\\fR"
		}
		b.WriteString(".TP\n\\fB" + names + "\\fR\n" + roff(f.Usage) + "\n")
	})
}

// roff escapes backslashes and leading dots.
func roff(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, ".") || strings.HasPrefix(l, "'") {
			lines[i] = "\\&" + l
		}
	}
	return strings.Join(lines, "\n")
}
