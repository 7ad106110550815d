package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"company_analyzer/internal/api"
	"company_analyzer/internal/feature/analysis/domain/entity"
)

// planService はCLIが必要とする計画書操作です。
type planService interface {
	GetPlan(ctx context.Context, planID string) (*entity.BusinessPlan, error)
	ListPlans(ctx context.Context) ([]entity.BusinessPlan, error)
	DeletePlan(ctx context.Context, planID string) error
	RenderPlanDocument(ctx context.Context, planID string) (*entity.Document, error)
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgMagenta, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func printError(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, format+"\n", args...)
}

func newRootCmd(svc planService, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Inspect and maintain stored business plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newListCmd(svc),
		newShowCmd(svc),
		newDeleteCmd(svc),
		newRenderCmd(svc),
	)
	return root
}

func newListCmd(svc planService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plans, err := svc.ListPlans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				_, _ = infoColor.Fprintln(out, "No business plans stored.")
				return nil
			}

			_, _ = headerColor.Fprintf(out, "%d business plan(s)\n", len(plans))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLAN ID\tCOMPANY\tINDUSTRY\tCREATED")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.PlanID, p.CompanyName(), p.Industry(), p.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(svc planService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <planId>",
		Short: "Print a stored plan as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := svc.GetPlan(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load plan %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(api.NewStoredPlanResponse(plan))
		},
	}
}

func newDeleteCmd(svc planService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <planId>",
		Short: "Delete a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.DeletePlan(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete plan %s: %w", args[0], err)
			}
			_, _ = successColor.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", args[0])
			return nil
		},
	}
}

func newRenderCmd(svc planService) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <planId>",
		Short: "Render a stored plan as a Markdown document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := svc.RenderPlanDocument(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to render plan %s: %w", args[0], err)
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(doc.Body)
				return err
			}

			path := output
			if path == "" {
				path = doc.FileName
			}
			if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			_, _ = successColor.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file path ("-" for stdout, default: <Company>_Business_Plan.md)`)
	return cmd
}
