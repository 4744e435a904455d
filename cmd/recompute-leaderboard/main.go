// Command recompute-leaderboard reranks the leaderboard. Meant to run from cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SAP-F-2025/practice-service/internal/batch"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/services"
)

func main() {
	period := flag.String("period", "", "only recompute this period (week, month or all_time)")
	flag.Parse()

	periods := models.LeaderboardPeriods
	if *period != "" {
		p := models.LeaderboardPeriod(*period)
		if !p.IsValid() {
			fmt.Fprintf(os.Stderr, "invalid period %q\n", *period)
			os.Exit(2)
		}
		periods = []models.LeaderboardPeriod{p}
	}

	rt, err := batch.NewRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	svc := services.NewLeaderboardService(rt.Repository(), rt.DB, rt.Logger, rt.Cache())
	if err := run(context.Background(), svc, periods); err != nil {
		fmt.Fprintf(os.Stderr, "leaderboard recompute failed: %v\n", err)
		rt.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, svc services.LeaderboardService, periods []models.LeaderboardPeriod) error {
	for _, p := range periods {
		n, err := svc.Recompute(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		fmt.Printf("Updated %d entries for %s\n", n, p)
	}
	fmt.Println("Leaderboard recompute finished")
	return nil
}
