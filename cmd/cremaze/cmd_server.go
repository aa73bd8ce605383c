package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cremaze/cremaze/app/routes"
	"github.com/cremaze/cremaze/config"
	"github.com/cremaze/cremaze/internal/server"
	"github.com/cremaze/cremaze/pkg/router"
)

// cremaze serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// cremaze route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "Print every named route",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		r := router.New()
		routes.RegisterAPI(r, nil)

		table := r.Routes()
		names := make([]string, 0, len(table))
		for name := range table {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("%-24s %s\n", name, table[name])
		}
		return nil
	},
}
