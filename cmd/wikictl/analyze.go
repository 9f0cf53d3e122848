package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/endpoints"
	wikiService "wikidash/internal/service/wiki"
	"wikidash/internal/service/wiki/converter"
)

var (
	analyzeReq           wikiSvc.AnalysisRequest
	analyzeSummaryFormat string
	analyzeCompact       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <kind>",
	Short: "Run one analysis and print the view as JSON",
	Long: "Run one analysis and print the view as JSON.\n\nKinds: " +
		strings.Join(kindNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := endpoints.Kind(args[0])

		summaryConverter, err := converter.ForFormat(analyzeSummaryFormat)
		if err != nil {
			return err
		}

		logger := newLogger(cmd.ErrOrStderr())
		services, err := wikiService.SetupServices(cfg, summaryConverter, logger)
		if err != nil {
			return err
		}

		run, ok := wikiService.Pipelines(services.Analysis)[kind]
		if !ok {
			return fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(kindNames(), ", "))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		req := analyzeReq
		view, err := run(ctx, &req)
		if err != nil {
			return fmt.Errorf("%s %q: %w", kind, req.Title, err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		if !analyzeCompact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(view)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeReq.Title, "title", "t", "", "Article title (required)")
	f.IntVar(&analyzeReq.Limit, "limit", 0, "Top-N for rankings (0 = configured default)")
	f.StringVar(&analyzeReq.Timezone, "tz", "", "IANA time zone for day buckets")
	f.IntVar(&analyzeReq.MaxRevisions, "max-revisions", 0, "Only the newest N revisions (0 = all)")
	f.IntVar(&analyzeReq.MaxAgeDays, "max-age-days", 0, "Only revisions from the last N days (0 = all)")
	f.StringVar(&analyzeReq.Start, "start", "", "Pageview range start, YYYY-MM-DD")
	f.StringVar(&analyzeReq.End, "end", "", "Pageview range end, YYYY-MM-DD")
	f.StringVar(&analyzeReq.Gaps, "gaps", "", "Pageview gap policy: report or interpolate")
	f.StringVar(&analyzeSummaryFormat, "summary-format", "markdown", "Article summary format: markdown or text")
	f.BoolVar(&analyzeCompact, "compact", false, "Print JSON on one line")
	_ = analyzeCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(analyzeCmd)
}

func kindNames() []string {
	names := make([]string, len(endpoints.AnalysisKinds))
	for i, k := range endpoints.AnalysisKinds {
		names[i] = string(k)
	}
	return names
}
