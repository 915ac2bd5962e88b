package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/version"
)

type app struct {
	cfgFile  string
	logLevel string
	cfg      *Config
	log      *logger.Logger
	metrics  *observability.StreamMetrics
	shutdown []func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "streamcall",
		Short:         "Serve and call streamed HTTP endpoints",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(context.WithoutCancel(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default searches ./config.yaml and ./config/streamcall.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newServeCmd(a), newCallCmd(a))
	return root
}

func (a *app) init(ctx context.Context) error {
	cfg, err := loadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	logger.Init(cfg.Logging)
	a.cfg = cfg
	a.log = logger.GetGlobalLogger()

	if cfg.Telemetry.Enabled {
		return a.initTelemetry(ctx)
	}
	return nil
}

func (a *app) initTelemetry(ctx context.Context) error {
	t := a.cfg.Telemetry

	tc := observability.DefaultTracerConfig(a.cfg.Name)
	tc.ServiceVersion, tc.Environment = a.cfg.Version, a.cfg.Environment
	tc.Endpoint, tc.Insecure, tc.SampleRate = t.Endpoint, t.Insecure, t.SampleRate
	tp, err := observability.InitTracer(ctx, tc)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mc := observability.DefaultMeterConfig(a.cfg.Name)
	mc.ServiceVersion, mc.Environment = a.cfg.Version, a.cfg.Environment
	mc.Endpoint, mc.Insecure = t.Endpoint, t.Insecure
	mp, err := observability.InitMeter(ctx, mc)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	a.metrics, err = observability.NewStreamMetrics(observability.Meter("streamcall"))
	return err
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for _, fn := range a.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
