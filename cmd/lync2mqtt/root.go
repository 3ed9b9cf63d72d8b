package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "lync2mqtt",
		Short:         "Bridge an HTD Lync audio controller to MQTT",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, configFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lync2mqtt %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigCheckCommand(configFlag))
	return configCmd
}

func newConfigCheckCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration, then print it with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}

			w := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(w, "# configuration from environment")
			} else {
				fmt.Fprintf(w, "# configuration from %s\n", path)
			}
			_, err = w.Write(out)
			return err
		},
	}
}

// loadConfig resolves the configuration file and loads it. An explicit
// --config must exist; LYNC2MQTT_CONFIG may point at a file that is not
// there yet, and with neither set the environment alone is used.
func loadConfig(flag string) (*config.Config, string, error) {
	if flag != "" {
		cfg, err := config.Load(flag)
		if err != nil {
			return nil, flag, fmt.Errorf("loading config: %w", err)
		}
		return cfg, flag, nil
	}

	path := os.Getenv("LYNC2MQTT_CONFIG")
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}
