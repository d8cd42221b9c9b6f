package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/brizzai/httpdeco/internal/parser"
	"github.com/brizzai/httpdeco/internal/server/tool"
	"github.com/brizzai/httpdeco/internal/tui"
	"github.com/brizzai/httpdeco/pkg/transport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := newCatalogService(cfg)
			if err != nil {
				return err
			}

			data := pterm.TableData{{"Name", "Verb", "URL", "Params", "Description"}}
			for _, ep := range svc.Endpoints() {
				takes := "no"
				if ep.TakesParams() {
					takes = "yes"
				}
				data = append(data, []string{ep.Name, ep.Verb, ep.URL, takes, ep.Description})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

type callOptions struct {
	params  []string
	headers []string
	dryRun  bool
}

func newCallCmd() *cobra.Command {
	var opts callOptions
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Call a catalog endpoint and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], opts)
		},
	}
	fs := cmd.Flags()
	fs.StringArrayVarP(&opts.params, "param", "p", nil, "Request param as key=value, repeatable")
	fs.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as key=value, repeatable")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the resolved request configuration instead of sending it")
	return cmd
}

func runCall(cmd *cobra.Command, name string, opts callOptions) error {
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newCatalogService(cfg)
	if err != nil {
		return err
	}
	// One call per process, so command line headers go straight into the client defaults.
	if len(headers) > 0 {
		svc.Client().SetDefaults(map[string]any{"headers": headers})
	}

	if opts.dryRun {
		resolved, err := svc.Resolve(name, params, nil)
		if err != nil {
			return err
		}
		text, err := tui.RenderConfig(resolved, tui.FormatYAML)
		if err != nil {
			return err
		}
		pterm.Println(text)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := svc.Call(ctx, name, params, nil)
	if err != nil {
		if te, ok := transport.AsError(err); ok && te.Response != nil {
			pterm.Error.Printfln("HTTP %d", te.Response.Status)
			pterm.Println(string(te.Response.Body))
		}
		return err
	}

	text, err := tool.ResultText(resp)
	if err != nil {
		return err
	}
	if resp != nil {
		pterm.Success.Printfln("HTTP %d", resp.Status)
	}
	pterm.Println(text)
	return nil
}

// parseParams turns key=value pairs into params. Values are read as YAML scalars, so numbers and
// booleans keep their type.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, raw, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		params[k] = v
	}
	return params, nil
}

func parseHeaders(pairs []string) (map[string]any, error) {
	headers := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		headers[k] = v
	}
	return headers, nil
}

func splitPair(pair string) (string, string, error) {
	k, v, ok := strings.Cut(pair, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid pair %q, expected key=value", pair)
	}
	return k, v, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Browse the catalog and preview resolved requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := newCatalogService(cfg)
			if err != nil {
				return err
			}

			source := cfg.CatalogFile
			if source == "" {
				source = cfg.SwaggerFile
			}
			p := tea.NewProgram(tui.NewAppModel(svc, source), tea.WithAltScreen())
			m, err := p.Run()
			if err != nil {
				return fmt.Errorf("error running inspector: %w", err)
			}

			if final, ok := m.(tui.AppModel); ok && final.IsFinished() {
				pterm.Info.Printfln("Exported the resolved configuration of %s endpoints.",
					pterm.LightGreen(len(final.Items())))
			}
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert the swagger file into a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			swaggerFile, _ := cmd.Flags().GetString("swagger-file")
			selectionFile, _ := cmd.Flags().GetString("selection-file")
			if swaggerFile == "" {
				return fmt.Errorf("swagger file is required, you must supply it with --swagger-file")
			}

			p := parser.NewSwaggerParser(parser.NewSelection())
			if err := p.Init(swaggerFile, selectionFile); err != nil {
				return fmt.Errorf("error parsing swagger file: %w", err)
			}
			raw, err := p.Catalog().Marshal()
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %d endpoints to %s", len(p.GetRouteTools()), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Catalog file to write, stdout when empty")
	return cmd
}
