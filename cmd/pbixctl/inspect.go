package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/pbixinspect/internal/core"
	"github.com/JonMunkholm/pbixinspect/internal/export"
)

type inspectOptions struct {
	strict bool
	format string
	pretty bool
	output string
	xlsx   string
	rules  bool
}

// report is the printed document: the envelope, plus findings on request.
type report struct {
	core.Envelope `yaml:",inline"`
	Findings      *core.RuleReport `json:"findings,omitempty" yaml:"findings,omitempty"`
}

func newInspectCmd(svc *core.Service) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <file.pbix>",
		Short: "Print the model of an archive as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, svc, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on the first unreadable table")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: json, yaml")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Also write the model as an Excel workbook")
	cmd.Flags().BoolVar(&opts.rules, "rules", false, "Include best-practice findings")
	return cmd
}

func runInspect(cmd *cobra.Command, svc *core.Service, opts *inspectOptions, path string) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("invalid format: %s (must be json or yaml)", opts.format)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	mode := core.ModeIsolate
	if opts.strict {
		mode = core.ModeStrict
	}

	a, err := svc.Analyze(cmd.Context(), core.AnalyzeRequest{
		FileName: filepath.Base(path),
		Data:     data,
		Mode:     mode,
		Source:   core.SourceCLI,
	})
	if err != nil {
		return err
	}

	if failed := a.FailedTables(); len(failed) > 0 {
		slog.Warn("some tables could not be read", "count", len(failed), "tables", failed)
	}

	doc := report{Envelope: *a.Envelope}
	if opts.rules {
		doc.Findings = &a.Findings
	}

	out, err := encode(doc, opts.format, opts.pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, out, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}

	if opts.xlsx != "" {
		if err := writeWorkbook(opts.xlsx, a.Envelope); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
	}
	return nil
}

func encode(doc report, format string, pretty bool) ([]byte, error) {
	if format == "yaml" {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeWorkbook(path string, env *core.Envelope) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteWorkbook(f, env)
}

// newRulesCmd lists the registered best-practice rules.
func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the best-practice rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRules(cmd.OutOrStdout())
		},
	}
}

func listRules(w io.Writer) error {
	for _, rule := range core.AllRules() {
		if _, err := fmt.Fprintf(w, "%-36s %-12s %s\n", rule.ID, rule.Category, rule.Name); err != nil {
			return err
		}
	}
	return nil
}
