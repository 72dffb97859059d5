package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/llm-drift/internal/service/drift"
	"github.com/ashwinyue/llm-drift/internal/service/question"
)

var collectQuestions []string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a single collection tick and exit",
	Long:  `Queries every configured provider once per question, stores the answers and exits. Questions come from the questions file unless --question is given.`,
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringArrayVarP(&collectQuestions, "question", "q", nil, "question to ask (repeatable), overrides the questions file")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	orchestrator := a.services.Orchestrator
	if len(collectQuestions) > 0 {
		monitor := a.cfg.Monitor
		orchestrator = drift.NewOrchestrator(a.services.Repos, a.services.Providers, a.services.Scorer,
			question.Texts(collectQuestions...), drift.Options{
				RequestTimeout: monitor.RequestTimeout,
				Concurrency:    monitor.Concurrency,
				RateLimit:      monitor.RateLimit,
			})
	}

	res, err := orchestrator.RunTick(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "tick %s: %d questions, %d stored, %d failed, %d degraded scores in %s\n",
		res.ID, res.Questions, res.Stored, res.Failed, res.ScoreFailures, res.Duration.Round(time.Millisecond))
	return nil
}
