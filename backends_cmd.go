package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/herald/internal/backend"
	"github.com/dgnsrekt/herald/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var backendsCmd = &cobra.Command{
	Use:     "backends",
	Short:   "Show which speech backends are installed",
	Long:    paragraph(fmt.Sprintf("\n%s the speech backends herald can use on this machine, in the order auto-detection tries them.", keyword("List"))),
	Args:    cobra.NoArgs,
	Aliases: []string{"doctor"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := backendConfig(nil)
		report := backendsReport(cfg, backend.Detect(cfg))
		return printMarkdown(cmd.OutOrStdout(), report)
	},
}

// backendsReport renders the detection result as markdown.
func backendsReport(cfg backend.Config, statuses []backend.Status) string {
	var b strings.Builder

	b.WriteString("# Speech backends\n\n")
	fmt.Fprintf(&b, "Configured backend: `%s`\n\n", cfg.Name)
	b.WriteString("| Backend | Binary | Available | Detail |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, s := range statuses {
		avail := "no"
		if s.Available {
			avail = "yes"
		}
		bin := s.Binary
		if s.Path != "" {
			bin = s.Path
		}
		if bin == "" {
			bin = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.Name, bin, avail, s.Detail)
	}

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		b.WriteString("\n## Audio cache\n\n")
		fmt.Fprintf(&b, "Directory: `%s`\n\n", cfg.Cache.Dir)
		fmt.Fprintf(&b, "Limit: %s\n\n", humanize.IBytes(uint64(cfg.Cache.MaxSize))) //nolint:gosec
		if st, ok := cacheStats(cfg.Cache.Dir, cfg.Cache.MaxSize); ok {
			fmt.Fprintf(&b, "Stored: %s in %d files\n", humanize.IBytes(uint64(st.Size)), st.Items) //nolint:gosec
		} else {
			b.WriteString("Stored: nothing yet\n")
		}
	}
	return b.String()
}

func cacheStats(dir string, capacity int64) (cache.Stats, bool) {
	if _, err := os.Stat(dir); err != nil {
		return cache.Stats{}, false
	}
	cfg := cache.DefaultConfig(dir)
	if capacity > 0 {
		cfg.Capacity = capacity
	}
	dc, err := cache.NewDiskCache(cfg)
	if err != nil {
		return cache.Stats{}, false
	}
	defer dc.Close() //nolint:errcheck
	return dc.Stats(), true
}

// printMarkdown renders md with glamour when w is a terminal and writes it
// verbatim otherwise.
func printMarkdown(w io.Writer, md string) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec
		_, err := io.WriteString(w, md)
		return err
	}

	width := 80
	if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw < width { //nolint:gosec
		width = tw
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
