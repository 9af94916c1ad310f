package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/importer"
)

func (a *App) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import records from a JSON file",
		Long: `Import unavailability, allocations, exceptions and jobs from a JSON
document into the current database. Instants are RFC 3339; job dates
are read in the configured time zone.

Example:
  rota import ~/rota/march.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("import file does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking import file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("import path is a directory: %s", sourcePath)
			}

			loc, err := a.config.Location()
			if err != nil {
				return err
			}

			im := importer.New(a.repo, importer.WithLocation(loc), importer.WithLogger(a.log))
			res, err := im.ImportFile(context.Background(), sourcePath)
			if err != nil {
				return fmt.Errorf("importing %s (%d records written): %w", sourcePath, res.Total(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", formatSuccess(fmt.Sprintf("Imported %d records from %s", res.Total(), sourcePath)))
			fmt.Fprintf(out, "  jobs:           %d\n", res.Jobs)
			fmt.Fprintf(out, "  unavailability: %d\n", res.Unavailability)
			fmt.Fprintf(out, "  allocations:    %d\n", res.Allocations)
			fmt.Fprintf(out, "  exceptions:     %d\n", res.Exceptions)
			return nil
		},
	}

	return cmd
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
