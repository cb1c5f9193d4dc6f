package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"gscexport/config"
	googleClient "gscexport/internal/client/google"
	"gscexport/internal/cron"
	"gscexport/internal/report"
	"gscexport/internal/worker"
)

var version = "0.1.0"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "gscexport",
		Short: "Download Google Search Console reports into daily CSV files",
		Long: `gscexport pulls search analytics reports from Google Search Console,
one bulk query per dimension combination over the whole date range, and
splits the results into one CSV file per day.

Examples:
  gscexport --property sc-domain:example.com --sa_file key.json --start 2025-10-01 --end 2025-10-31
  gscexport --property https://example.com/ --sa_file key.json --start 2025-10-01 --end 2025-10-02 \
    --dimensions query,date --dimensions page,device,date --output_dir reports`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configFile)
		},
	}

	cmd.Flags().String("property", "", "GSC property (site URL or sc-domain: form)")
	cmd.Flags().String("sa_file", "", "path to the service account JSON key file")
	cmd.Flags().String("start", "", "start date, YYYY-MM-DD")
	cmd.Flags().String("end", "", "end date, YYYY-MM-DD")
	cmd.Flags().String("output_dir", config.DefaultOutputDir, "directory to save the CSV reports")
	cmd.Flags().StringArray("dimensions", nil, "comma separated dimension group, repeatable; each group must include date")
	cmd.Flags().Int64("limit", config.MaxRowLimit, "row limit per API page (max 25000)")
	cmd.Flags().String("schedule", "", "optional cron schedule to repeat the export")
	cmd.Flags().StringVar(&configFile, "config", "", "optional YAML config file")

	return cmd
}

func run(cmd *cobra.Command, configFile string) error {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	v := viper.New()
	v.SetEnvPrefix("GSC")
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			zapLogger.Error("failed to read config file", zap.String("file", configFile), zap.Error(err))
			return err
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Read(v)
	if err != nil {
		zapLogger.Error("invalid configuration", zap.Error(err))
		return err
	}

	gClient, err := googleClient.NewClient(ctx, zapLogger, cfg.ServiceAccountFile)
	if err != nil {
		zapLogger.Error("failed to create Search Console client", zap.Error(err))
		return err
	}

	repo := report.NewFSRepository(zapLogger, cfg.OutputDir)
	service := report.NewService(zapLogger, repo)
	w := worker.NewWorker(zapLogger, gClient, service, cfg)

	if cfg.Schedule != "" {
		s := cron.NewScheduler(zapLogger, w)
		if err := s.Start(ctx, cfg.Schedule); err != nil {
			zapLogger.Error("failed to start cron scheduler", zap.Error(err))
			return err
		}
		defer s.Stop()
		select {}
	}

	if failed := w.ProcessAllReports(ctx); failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(cfg.Reports))
	}
	return nil
}
