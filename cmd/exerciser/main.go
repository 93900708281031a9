// Command exerciser hosts a standalone BSA PCIe Exerciser core: the engine
// from internal/core wired to the debug HTTP surface from internal/httpapi
// and, optionally, a SQLite transaction trace sink. It has no TLP transport
// of its own — driving the core's RX/TX beat streams is a host harness's
// job, done by importing internal/core directly — this binary exists so the
// register file, MSI-X table, PBA, ATC, and monitor are inspectable while
// such a harness runs against an embedded Core in the same process.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/bsapcie/exerciser/internal/config"
	"github.com/bsapcie/exerciser/internal/core"
	"github.com/bsapcie/exerciser/internal/tracesink"
)

var (
	httpAddr string
	traceDB  string
)

var rootCmd = &cobra.Command{
	Use:   "exerciser",
	Short: "Standalone host for the BSA PCIe Exerciser behavioral core.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the core's debug HTTP inspection surface.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "address for the debug HTTP API")
	serveCmd.Flags().StringVar(&traceDB, "trace-db", "", "SQLite file to mirror transaction monitor records into (disabled if empty)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	c := core.New(cfg)

	if traceDB != "" {
		sink, err := tracesink.Open(traceDB)
		if err != nil {
			return fmt.Errorf("open trace db: %w", err)
		}
		defer sink.Close()
		c.Monitor.SetSink(sink.Record)
	}

	srv := c.NewDebugServer()
	fmt.Fprintf(os.Stderr, "exerciser: debug API listening on %s\n", httpAddr)
	return http.ListenAndServe(httpAddr, srv.Handler())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
