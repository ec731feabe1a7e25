package main

import (
	"fmt"

	"omerhsa-quotes/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

// registryCmd groups the activity registry commands
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Validate and edit the activity registry",
	Long: `Manage configs/activity-registry.json, the list of job worker task
types deployed with the quote process.

Available subcommands:
  validate - Check required fields, naming and timeouts
  add      - Register a new activity
  update   - Change one field of an activity`,
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var addActivity registry.Activity

var registryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new activity to the registry",
	Example: `  site-admin registry add --id quote-status-update --displayName "Update Quote Status" \
    --category quote --taskType quote.status.update`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadOrNew(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		activity := addActivity
		activity.InputSchema = map[string]interface{}{}
		activity.OutputSchema = map[string]interface{}{}
		activity.ErrorCodes = []string{}
		activity.Workflows = []string{"quote-request"}
		activity.Tags = []string{}
		if err := reg.Add(activity); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", activity.ID)
		return nil
	},
}

var (
	updateID    string
	updateField string
	updateValue string
)

var registryUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Update an existing activity's field",
	Example: `  site-admin registry update --id crm-lead-create --field status --value verified`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Update(updateID, updateField, updateValue); err != nil {
			return err
		}
		if err := registry.Save(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", updateID, updateField, updateValue)
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "path to registry file")

	f := registryAddCmd.Flags()
	f.StringVar(&addActivity.ID, "id", "", "activity ID (e.g., crm-lead-create)")
	f.StringVar(&addActivity.DisplayName, "displayName", "", "display name")
	f.StringVar(&addActivity.Description, "description", "", "description")
	f.StringVar(&addActivity.Category, "category", "", "category (e.g., crm)")
	f.StringVar(&addActivity.TaskType, "taskType", "", "task type (e.g., crm.lead.create)")
	f.StringVar(&addActivity.Version, "version", "1.0.0", "version")
	f.StringVar(&addActivity.ImplementationStatus, "status", "planned", "planned, in-progress, completed or verified")
	f.StringVar(&addActivity.Timeout, "timeout", "30s", "job timeout")
	f.IntVar(&addActivity.Retries, "retries", 3, "job retries")
	for _, name := range []string{"id", "displayName", "category", "taskType"} {
		_ = registryAddCmd.MarkFlagRequired(name)
	}

	u := registryUpdateCmd.Flags()
	u.StringVar(&updateID, "id", "", "activity ID to update")
	u.StringVar(&updateField, "field", "", "field to update (status, version, timeout, retries, ...)")
	u.StringVar(&updateValue, "value", "", "new value for the field")
	for _, name := range []string{"id", "field", "value"} {
		_ = registryUpdateCmd.MarkFlagRequired(name)
	}

	registryCmd.AddCommand(registryValidateCmd, registryAddCmd, registryUpdateCmd)
	rootCmd.AddCommand(registryCmd)
}
