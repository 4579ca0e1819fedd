package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/db"
	"github.com/dreece2304/EBeamSim-sub000/web"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the run archive, run triggering and live progress API",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Address, "address", cfg.Address, "listen address")
	return cmd
}

func serve(cfg *config.Config) error {
	archive, err := db.Connect(cfg.DBPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	hub := web.NewHub()
	server := web.NewServer(*cfg, archive, hub)

	log.Infof("listening on %s", cfg.Address)
	return http.ListenAndServe(cfg.Address, server)
}
