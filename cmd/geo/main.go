package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-layers/internal/server"
	"github.com/joeblew999/geo-layers/internal/service"
	"github.com/joeblew999/geo-layers/internal/tui"
)

// Options defines all CLI flags and env vars for the server.
// Flags: --host, --port, --data-dir, --web-dir, --history
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR, SERVICE_HISTORY
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for layer and map state" default:".data"`
	WebDir  string `doc:"Path to web/ directory" default:""`
	History bool   `doc:"Record applied layer orders in DuckDB" default:"false"`
}

func newServer(opts *Options) *server.Server {
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
		WebDir:  opts.WebDir,
		History: opts.History,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("geo-layers API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Map:     %s/api/v1/map\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Map layer management and layer order editor"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.History = false
			srv := newServer(opts)
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// layers subcommand: edit the map's layer order in the terminal
	layersCmd := &cobra.Command{
		Use:   "layers",
		Short: "Reorder, remove and restore map layers in the terminal",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if err := runLayerEditor(opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}),
	}
	cli.Root().AddCommand(layersCmd)

	cli.Run()
}

// runLayerEditor opens the terminal editor over the map in opts.DataDir.
// Changes are saved as they are made.
func runLayerEditor(opts *Options) error {
	srv := newServer(opts)
	defer srv.Close()
	svc := srv.Services()

	model := tui.New(svc.Map.Layers(), func(drawOrder []service.LayerConfig) error {
		if err := svc.Map.SetLayers(drawOrder); err != nil {
			return err
		}
		if svc.History == nil {
			return nil
		}
		ids := make([]string, len(drawOrder))
		for i, l := range drawOrder {
			ids[i] = l.ID
		}
		return svc.History.Record(context.Background(), "terminal", ids)
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return model.Err()
}
