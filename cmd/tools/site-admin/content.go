package main

import (
	"context"
	"fmt"
	"time"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/database"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/content"

	"github.com/spf13/cobra"
)

var catalogPath string

// indexContentCmd pushes the catalog to the content index
var indexContentCmd = &cobra.Command{
	Use:   "index-content",
	Short: "Index the blog and academic catalog in Elasticsearch",
	Long: `Loads the content catalog and bulk-indexes every item into the
configured content index, creating the index when it does not exist.`,
	RunE: runIndexContent,
}

func init() {
	indexContentCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (defaults to content.catalog_path)")
	rootCmd.AddCommand(indexContentCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runIndexContent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if catalogPath == "" {
		catalogPath = cfg.Content.CatalogPath
	}

	catalog, err := content.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	if err := esClient.Ping(ctx); err != nil {
		return err
	}

	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")
	svc := content.NewService(catalog, nil, log)
	n, err := svc.Reindex(ctx, content.NewElasticSearcher(esClient.Client, cfg.Database.Elasticsearch.ContentIndex))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d items into %s\n", n, cfg.Database.Elasticsearch.ContentIndex)
	return nil
}
