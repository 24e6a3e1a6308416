package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/internal/pci"
	"github.com/gogpu/hwcodec/metrics"
)

const envPrefix = "HWPROBE"

type app struct {
	v       *viper.Viper
	reg     *prometheus.Registry
	metrics *metrics.Collector
	scan    func() ([]pci.Device, error)
}

func newApp() *app {
	reg := prometheus.NewRegistry()
	return &app{
		v:       viper.New(),
		reg:     reg,
		metrics: metrics.NewCollector(reg),
		scan:    pci.Scan,
	}
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hwprobe",
		Short:         "Inspect hardware video encode and decode capabilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if !a.v.GetBool("metrics") {
				return nil
			}
			return a.writeMetrics(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default $XDG_CONFIG_HOME/hwprobe/hwprobe.yaml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.StringP("output", "o", formatText, "output format: text, json, yaml")
	pf.Bool("metrics", false, "print Prometheus metrics after the command")

	cmd.AddCommand(a.capsCmd(), a.adaptersCmd(), a.presentCmd())
	return cmd
}

// load binds the flags of the running command, reads the config file and
// installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if err := a.readConfig(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	hwcodec.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func (a *app) readConfig() error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		return nil
	}

	a.v.SetConfigName("hwprobe")
	a.v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(dir, "hwprobe"))
	}
	a.v.AddConfigPath(".")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	hwcodec.Logger().Debug("hwprobe: config loaded", "file", a.v.ConfigFileUsed())
	return nil
}

func (a *app) writeMetrics(cmd *cobra.Command) error {
	families, err := a.reg.Gather()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
