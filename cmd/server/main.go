package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "cafesync-ai/configs"
	"cafesync-ai/pkg/logging"
	"cafesync-ai/pkg/ml"
	"cafesync-ai/pkg/models"
	"cafesync-ai/pkg/router"
	"cafesync-ai/pkg/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	serviceName     = "cafesync-ai"
	shutdownTimeout = 10 * time.Second
)

// cli 各サブコマンドで共有する設定とロガー
type cli struct {
	cfg    *config.Config
	logger *zap.Logger

	modelDir string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "server",
		Short:        "CafeSync AI demand prediction and inventory API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		// 引数なしの場合はサーバーを起動
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.modelDir, "model-dir", "", "override MODEL_DIR")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "train",
			Short: "Retrain the demand model and overwrite the persisted artifact",
			Long: `Trains a fresh demand model from the synthetic corpus and replaces whatever
is stored in MODEL_DIR. This is the recovery path for a corrupt artifact.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.train(cmd)
			},
		},
		newPredictCmd(c),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.modelDir != "" {
		cfg.Model.Dir = c.modelDir
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel, serviceName)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := router.NewApp(c.cfg, c.logger)

	if c.cfg.Model.EagerLoad {
		// 壊れた成果物では起動を止めず、再学習まで予測APIがエラーを返す
		if _, err := app.Demand.EnsureModel(ctx); err != nil {
			if !errors.Is(err, ml.ErrArtifactCorrupt) {
				return err
			}
			c.logger.Error("demand model unavailable, run `server train` or POST /api/v1/admin/model/retrain",
				zap.String("dir", c.cfg.Model.Dir), zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              ":" + c.cfg.Port,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (c *cli) store() *ml.Store {
	return ml.NewStore(c.cfg.Model.Dir, c.cfg.TrainConfig(), c.logger)
}

func (c *cli) train(cmd *cobra.Command) error {
	a, err := c.store().CreateAndPersist(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(cmd, a.Meta)
}

func newPredictCmd(c *cli) *cobra.Command {
	var (
		temperature float64
		condition   string
		hour        int
		dayOfWeek   int
		season      string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict demand once using the persisted model (trained if absent)",
		Example: `  server predict --condition sunny --hour 8
  server predict --temperature 28 --season summer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.DemandPredictionRequest
			flags := cmd.Flags()
			if flags.Changed("temperature") {
				req.Weather.Temperature = &temperature
			}
			if flags.Changed("condition") {
				req.Weather.Condition = &condition
			}
			if flags.Changed("hour") {
				req.Time.Hour = &hour
			}
			if flags.Changed("day-of-week") {
				req.Time.DayOfWeek = &dayOfWeek
			}
			if flags.Changed("season") {
				req.Time.Season = &season
			}

			demand := services.NewDemandService(c.store(), c.cfg.Model.Confidence, nil, c.logger)
			prediction, err := demand.PredictDemand(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, prediction)
		},
	}

	cmd.Flags().Float64Var(&temperature, "temperature", ml.DefaultTemperature, "temperature in °C")
	cmd.Flags().StringVar(&condition, "condition", "", "sunny, cloudy or rainy")
	cmd.Flags().IntVar(&hour, "hour", ml.DefaultHour, "hour of day (0-23)")
	cmd.Flags().IntVar(&dayOfWeek, "day-of-week", ml.DefaultDayOfWeek, "day of week (0-6)")
	cmd.Flags().StringVar(&season, "season", "", "spring, summer, fall or winter")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
