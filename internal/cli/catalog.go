package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filedrop/filedrop/internal/catalog"
	"github.com/filedrop/filedrop/internal/config"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local file catalog",
	}
	cmd.AddCommand(newCatalogAddCmd())
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

func newCatalogAddCmd() *cobra.Command {
	var d catalog.Descriptor

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a file descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.ID == "" || d.Name == "" {
				return fmt.Errorf("--id and --name are required")
			}
			d.IsLocallyCached = d.LocalPath != ""

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			cat.Add(d)
			if err := cat.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", d.ID, d.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&d.ID, "id", "", "File identifier")
	cmd.Flags().StringVar(&d.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&d.MIMEType, "mime", "application/octet-stream", "Content type")
	cmd.Flags().StringVar(&d.LocalPath, "path", "", "Local cache path (marks the file as cached)")
	cmd.Flags().Int64Var(&d.Size, "size", 0, "Declared size in bytes")
	cmd.Flags().StringVar(&d.RemoteURL, "url", "", "Remote source URL")

	return cmd
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			for _, d := range cat.List() {
				cached := "remote"
				if d.IsLocallyCached {
					cached = "cached"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-30s %-24s %8d  %s\n",
					d.ID, d.Name, d.MIMEType, d.Size, cached)
			}
			return nil
		},
	}
}
