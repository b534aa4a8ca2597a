package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"termdeck/app"
	"termdeck/config"
	"termdeck/log"
	"termdeck/mcp"
	"termdeck/render"
	"termdeck/session"

	_ "termdeck/render/termpaint" // default accelerated backend
)

var (
	version = "0.1.0"

	programFlag string
	noAccelFlag bool

	rootCmd = &cobra.Command{
		Use:   "termdeck",
		Short: "termdeck - a multi-session terminal host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()
			// Flags override config.
			if programFlag != "" {
				cfg.DefaultProgram = programFlag
			}
			if noAccelFlag {
				cfg.Acceleration.Disabled = true
			}

			return app.Run(ctx, cfg)
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print render capabilities and the last persisted state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()
			caps := render.Probe(render.ProbeOptions{
				Disabled:       cfg.Acceleration.Disabled || noAccelFlag,
				ContextCeiling: cfg.Acceleration.MaxContexts,
				ExtraDenylist:  cfg.Acceleration.VendorDenylist,
			})

			storage, err := session.DefaultStorage()
			if err != nil {
				return err
			}
			state, err := storage.Load()
			if err != nil {
				return err
			}

			out := struct {
				Capabilities render.Capabilities `json:"capabilities"`
				State        session.State       `json:"state"`
				LogFile      string              `json:"log_file"`
				DebugLogging bool                `json:"debug_logging"`
			}{caps, state, log.Path(), log.IsDebugEnabled()}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve session and render diagnostics over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := session.DefaultStorage()
			if err != nil {
				return err
			}
			return mcp.NewDeckMCPServer(storage).Serve()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("termdeck version %s\n", version)
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&programFlag, "program", "p", "", "program to run in new sessions (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noAccelFlag, "no-accel", false, "disable accelerated rendering")
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
