package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
	"github.com/fredcamaral/coursekit/internal/domain/services"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [course-id]",
		Short: "Write a course, or the course template, to a ZIP archive",
		Long: `Export a course directory as a ZIP archive that "POST /api/courses/import"
accepts, or write the starter template with --template.

Example:
  coursekit export go-basics -o go-basics.zip
  coursekit export --template`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: <course-id>.zip or course-template.zip)")
	cmd.Flags().Bool("template", false, "Write the course template instead of a course")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	template, _ := cmd.Flags().GetBool("template")
	if template == (len(args) == 1) {
		return fmt.Errorf("give either a course id or --template")
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		if template {
			output = "course-template.zip"
		} else {
			output = args[0] + ".zip"
		}
	}

	resolved, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	cfg := resolved.Config

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	deps, err := newDependencies(cfg, logger, ports.NopMetrics{})
	if err != nil {
		return err
	}
	courses := services.NewCourseService(deps)

	f, err := os.Create(output) // #nosec G304 - path given on the command line
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}

	if template {
		err = courses.Template(cmd.Context(), f)
	} else {
		err = courses.Export(cmd.Context(), args[0], f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(output)
		return err
	}

	logger.Success("wrote %s", output)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}
