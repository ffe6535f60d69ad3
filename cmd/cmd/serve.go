package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/server"
)

var (
	serveAddr string
	serveWarm bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("[serve] ")
		if err != nil {
			return err
		}
		defer a.Close()
		if serveAddr != "" {
			a.cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveWarm {
			if err := a.controller.Warm(ctx, a.table.Names()...); err != nil {
				return err
			}
		}

		sessions, err := controller.NewSessionStore(a.cfg.Server.SessionLimit)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		srv, err := server.New(a.controller, a.table, sessions, server.Options{
			Samples:  a.cfg.Samples,
			Defaults: a.cfg.Defaults,
			Registry: reg,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, a.cfg.Server)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "load every dataset model before serving")
	rootCmd.AddCommand(serveCmd)
}

