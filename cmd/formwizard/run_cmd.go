package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/pkg/metrics"
	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/upload"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

type runFlags struct {
	submitURL   string
	uploadDir   string
	optionsDir  string
	optionsURL  string
	metricsAddr string
	dryRun      bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:       "run <wizard>",
		Short:     "Fill in a wizard interactively",
		Args:      cobra.ExactArgs(1),
		ValidArgs: wizards.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *root.cfg
			flags.apply(cmd, &cfg)
			logger := cfg.Logger(cmd.ErrOrStderr())

			opts, err := collaborators(&cfg, flags.dryRun, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			if cfg.MetricsAddr != "" {
				reg := prometheus.NewRegistry()
				opts = append(opts, wizard.WithObserver(metrics.NewObserver(reg)))
				_, stop, err := serveMetrics(cfg.MetricsAddr, cfg.MetricsPath, reg, logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			s, err := wizards.Lookup(args[0])
			if err != nil {
				return err
			}
			ctrl, err := wizard.New(s, opts...)
			if err != nil {
				return err
			}
			session, err := tui.New(ctrl)
			if err != nil {
				return err
			}
			result, err := session.Run(cmd.Context())
			if errors.Is(err, tui.ErrClosed) {
				fmt.Fprintln(cmd.OutOrStdout(), "Closed without saving.")
				return nil
			}
			if err != nil {
				return err
			}
			logger.WithField("id", result.ID).Info("wizard submitted")
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.submitURL, "submit-url", "", "Endpoint receiving the submission (env FORMWIZARD_SUBMIT_URL)")
	cmd.Flags().StringVar(&flags.uploadDir, "upload-dir", "", "Directory storing avatar uploads (env FORMWIZARD_UPLOAD_DIR)")
	cmd.Flags().StringVar(&flags.optionsDir, "options-dir", "", "Directory of JSON/YAML option sources (env FORMWIZARD_OPTIONS_DIR)")
	cmd.Flags().StringVar(&flags.optionsURL, "options-url", "", "API base URL serving option sources (env FORMWIZARD_OPTIONS_URL)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (env FORMWIZARD_METRICS_ADDR)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the payload instead of posting it")
	return cmd
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("submit-url") {
		cfg.SubmitURL = f.submitURL
	}
	if cmd.Flags().Changed("upload-dir") {
		cfg.UploadDir = f.uploadDir
	}
	if cmd.Flags().Changed("options-dir") {
		cfg.OptionsDir = f.optionsDir
	}
	if cmd.Flags().Changed("options-url") {
		cfg.OptionsURL = f.optionsURL
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
}

// collaborators wires the submitter, avatar store and option sources from
// cfg. Without a submit URL, or with dryRun, the payload is printed to out.
func collaborators(cfg *config.Config, dryRun bool, out io.Writer, logger logrus.FieldLogger) ([]wizard.Option, error) {
	opts := []wizard.Option{wizard.WithLogger(logger)}

	if dryRun || cfg.SubmitURL == "" {
		opts = append(opts, wizard.WithSubmitter(printSubmitter(out)))
	} else {
		submitter, err := submit.NewHTTP(cfg.SubmitURL,
			submit.WithTimeout(cfg.SubmitTimeout),
			submit.WithHTTPLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, wizard.WithSubmitter(submitter))
	}

	if cfg.UploadDir != "" {
		store, err := upload.NewLocalStore(cfg.UploadDir,
			upload.WithBaseURL(cfg.UploadBaseURL),
			upload.WithMaxBytes(cfg.UploadMaxBytes),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, wizard.WithUploader(store))
	}

	var providers []options.Provider
	if cfg.OptionsDir != "" {
		static, err := options.LoadFS(os.DirFS(cfg.OptionsDir))
		if err != nil {
			return nil, err
		}
		providers = append(providers, static)
	}
	if cfg.OptionsURL != "" {
		providers = append(providers, options.NewHTTP(
			options.FromBaseURL(cfg.OptionsURL, wizards.SourceProperties, wizards.SourceUnits),
		))
	}
	if len(providers) > 0 {
		opts = append(opts, wizard.WithOptionsProvider(options.Chain(providers...)))
	}
	return opts, nil
}

func printSubmitter(out io.Writer) submit.Submitter {
	return submit.Func(func(_ context.Context, values map[string]any) (submit.Result, error) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(values); err != nil {
			return submit.Result{}, err
		}
		return submit.Result{ID: "dry-run", Status: http.StatusOK}, nil
	})
}

// serveMetrics exposes reg on addr and returns the bound address plus a
// shutdown func.
func serveMetrics(addr, path string, reg *prometheus.Registry, logger logrus.FieldLogger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server stopped")
		}
	}()
	logger.WithField("addr", ln.Addr().String()).Debug("serving metrics")

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
