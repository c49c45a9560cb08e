package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/productinventor/filevault/internal/cli/output"
	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/deletion"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator actions: locks, compliance reports, deletion certificates",
}

func init() {
	adminCmd.AddCommand(adminLocksCmd)
	adminCmd.AddCommand(adminComplianceReportCmd)
	adminCmd.AddCommand(adminDeletionCertCmd)
	adminCmd.AddCommand(adminRetryDeletionCmd)
	adminCmd.AddCommand(adminDeleteProjectCmd)
}

var adminLocksCmd = &cobra.Command{
	Use:   "locks <project-id>",
	Short: "List active checkout locks for a project's files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAdminConfig()
		if err != nil {
			return err
		}
		metadata, err := openMetadataStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}

		files, err := metadata.ListFilesByProject(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}

		table := output.NewTableData("FILE", "NAME", "OWNER", "ACQUIRED AT", "EXPIRES AT")
		for _, f := range files {
			lock, err := metadata.GetLock(cmd.Context(), f.ID)
			if err != nil {
				if _, ok := err.(*apierr.LockNotFoundError); ok {
					continue
				}
				return fmt.Errorf("failed to read lock for file %s: %w", f.ID, err)
			}
			table.AddRow(f.ID, f.Name, lock.OwnerID,
				lock.AcquiredAt.Format(time.RFC3339), lock.ExpiresAt.Format(time.RFC3339))
		}

		return output.PrintTable(cmd.OutOrStdout(), table)
	},
}

var adminComplianceReportCmd = &cobra.Command{
	Use:   "compliance-report <project-id> <from-RFC3339> <to-RFC3339>",
	Short: "Generate a day-bucketed audit compliance report for a project",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			return fmt.Errorf("invalid from timestamp: %w", err)
		}
		to, err := time.Parse(time.RFC3339, args[2])
		if err != nil {
			return fmt.Errorf("invalid to timestamp: %w", err)
		}

		cfg, err := loadAdminConfig()
		if err != nil {
			return err
		}
		metadata, err := openMetadataStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}

		auditLog := newAuditLog(metadata)
		report, err := auditLog.GenerateComplianceReport(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}
		return output.PrintJSON(cmd.OutOrStdout(), report)
	},
}

var adminDeletionCertCmd = &cobra.Command{
	Use:   "deletion-cert <deletion-record-id>",
	Short: "Generate a deletion certificate for a completed secure-delete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAdminConfig()
		if err != nil {
			return err
		}
		metadata, err := openMetadataStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}
		blobs, _, err := openContentStore(cfg)
		if err != nil {
			return err
		}

		engine := deletion.New(blobs, metadata, nil, nil, nil)
		cert, err := engine.GenerateCertificate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output.PrintJSON(cmd.OutOrStdout(), cert)
	},
}

var adminRetryDeletionCmd = &cobra.Command{
	Use:   "retry-deletion <deletion-record-id> <actor>",
	Short: "Retry a FAILED secure-delete record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAdminConfig()
		if err != nil {
			return err
		}
		metadata, err := openMetadataStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}
		blobs, _, err := openContentStore(cfg)
		if err != nil {
			return err
		}

		engine := deletion.New(blobs, metadata, nil, nil, nil)
		record, err := engine.RetryDeletion(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return output.PrintJSON(cmd.OutOrStdout(), record)
	},
}

var adminDeleteProjectCmd = &cobra.Command{
	Use:   "delete-project <project-id> <actor> <reason>",
	Short: "Cascade-delete a project and securely wipe its now-unreferenced blobs",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAdminConfig()
		if err != nil {
			return err
		}
		metadata, err := openMetadataStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open metadata store: %w", err)
		}
		blobs, _, err := openContentStore(cfg)
		if err != nil {
			return err
		}
		auditLog := newAuditLog(metadata)

		engine := deletion.New(blobs, metadata, nil, nil, auditLog)
		report, err := engine.DeleteProject(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return output.PrintJSON(cmd.OutOrStdout(), report)
	},
}
