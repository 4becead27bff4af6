package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ragscout/ragscout/internal/config"
	"github.com/ragscout/ragscout/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("ragscout: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ragscout",
		Short:         "Research assistant that builds and queries a local knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIngestCmd(), newAskCmd(), newStatsCmd(), newClearCmd())
	return root
}

// buildPipeline loads configuration and constructs the pipeline for a
// command run.
func buildPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cmd.Context(), cfg)
}

func newIngestCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "ingest [query]",
		Short: "Build the knowledge base from a web search or a local directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" && len(args) == 0 {
				return fmt.Errorf("provide a search query or --dir")
			}

			p, err := buildPipeline(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			var stats pipeline.IngestStats
			if dir != "" {
				stats, err = p.IngestLocal(cmd.Context(), dir)
			} else {
				stats, err = p.IngestOnline(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Ingestion complete:\n")
			if stats.SourcesFound > 0 {
				fmt.Fprintf(os.Stdout, "  sources found:    %d\n", stats.SourcesFound)
				fmt.Fprintf(os.Stdout, "  after filtering:  %d\n", stats.SourcesAfterFilter)
				fmt.Fprintf(os.Stdout, "  downloaded:       %d\n", stats.Downloaded)
			}
			fmt.Fprintf(os.Stdout, "  loaded:           %d\n", stats.Loaded)
			fmt.Fprintf(os.Stdout, "  skipped:          %d\n", stats.Skipped)
			fmt.Fprintf(os.Stdout, "  chunks stored:    %d\n", stats.Chunks)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "ingest documents from a local directory instead of the web")
	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			answer, err := p.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, answer.Answer)
			if answer.TokensUsed.TotalTokens > 0 {
				fmt.Fprintf(os.Stdout, "\n(%s, %d tokens)\n", answer.Model, answer.TokensUsed.TotalTokens)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			stats, err := p.Store().Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Collection: %s\nDocuments:  %d\n", stats.CollectionName, stats.TotalDocuments)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete everything in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}

			p, err := buildPipeline(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			if err := p.Store().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Knowledge base cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
