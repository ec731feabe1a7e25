// cmd/tools/site-admin/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "site-admin",
	Short: "Maintenance commands for the OMERHSA quote service",
	Long: `Maintenance commands for the OMERHSA quote service.

Available commands:
  index-content  - Push the blog/academic catalog to Elasticsearch
  hash-password  - Produce a bcrypt hash for auth.gate.authorized_users
  registry       - Validate and edit the activity registry`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to configs/config.yaml discovery)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
