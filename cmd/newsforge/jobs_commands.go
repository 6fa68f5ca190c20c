package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsforge/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage video generation jobs",
	}

	jobsCmd.AddCommand(newJobsAddCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsPublishCommand(ctx))

	return jobsCmd
}

func newJobsAddCommand(ctx *commandContext) *cobra.Command {
	var (
		language string
		length   int
		category string
		country  string
		voice    string
		theme    string
		autoPub  bool
	)

	cmd := &cobra.Command{
		Use:   "add <topic>",
		Short: "Queue a new job for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			job, err := client.CreateJob(api.CreateJobRequest{
				Topic:            strings.TrimSpace(args[0]),
				Language:         language,
				RequestedLength:  length,
				Category:         category,
				Country:          country,
				VoiceID:          voice,
				VideoTheme:       theme,
				PublishRequested: autoPub,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s for topic %q\n", job.ID, job.Topic)
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "BCP 47 language tag for the summary and narration")
	cmd.Flags().IntVar(&length, "length", 0, "Target video length in seconds (30-300)")
	cmd.Flags().StringVar(&category, "category", "", "News category to search within")
	cmd.Flags().StringVar(&country, "country", "", "Two-letter country code for headlines")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice identifier")
	cmd.Flags().StringVar(&theme, "theme", "", "Video rendering theme")
	cmd.Flags().BoolVar(&autoPub, "publish", false, "Publish automatically after rendering")
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		topic  string
		page   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			query := url.Values{}
			if status != "" {
				query.Set("status", status)
			}
			if topic != "" {
				query.Set("topic", topic)
			}
			if page > 0 {
				query.Set("page", strconv.Itoa(page))
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			result, err := client.ListJobs(query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Jobs) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(result.Jobs))
			for _, job := range result.Jobs {
				rows = append(rows, []string{
					job.ID,
					job.Topic,
					job.Status,
					strconv.Itoa(job.RequestedLength),
					job.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Topic", "Status", "Length", "Created"},
				rows,
				3,
			))
			fmt.Fprintf(out, "Page %d of %d jobs total\n", result.Pagination.Page, result.Pagination.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued, running, completed, failed)")
	cmd.Flags().StringVar(&topic, "topic", "", "Filter by topic substring")
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Jobs per page")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job with its steps and source articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s\n", job.ID)
			fmt.Fprintf(out, "  Topic:     %s\n", job.Topic)
			fmt.Fprintf(out, "  Status:    %s\n", job.Status)
			fmt.Fprintf(out, "  Language:  %s\n", job.Language)
			fmt.Fprintf(out, "  Length:    %ds\n", job.RequestedLength)
			fmt.Fprintf(out, "  Created:   %s\n", job.CreatedAt.Local().Format(time.RFC1123))
			if job.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:     %s\n", job.ErrorMessage)
			}
			if job.ExternalURL != "" {
				fmt.Fprintf(out, "  Published: %s\n", job.ExternalURL)
			}

			if len(job.Steps) > 0 {
				rows := make([][]string, 0, len(job.Steps))
				for _, step := range job.Steps {
					rows = append(rows, []string{step.Name, step.Status, step.ErrorMessage})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"Step", "Status", "Error"}, rows))
			}

			if len(job.Articles) > 0 {
				rows := make([][]string, 0, len(job.Articles))
				for _, article := range job.Articles {
					rows = append(rows, []string{article.Title, article.SourceName, article.URL})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"Article", "Source", "URL"}, rows))
			}
			return nil
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a job and its stored articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.DeleteJob(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
			return nil
		},
	}
}

func newJobsPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a completed job's video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := client.Publish(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published: %s\n", result.VideoURL)
			return nil
		},
	}
}
