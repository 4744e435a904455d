// Command recompute-stats rebuilds profile statistics from session history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SAP-F-2025/practice-service/internal/batch"
	"github.com/SAP-F-2025/practice-service/internal/services"
)

func main() {
	userID := flag.Uint("user", 0, "only recompute this user id")
	flag.Parse()

	rt, err := batch.NewRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	svc := services.NewStatsService(rt.Repository(), rt.DB, rt.Logger)
	ctx := context.Background()

	if *userID != 0 {
		profile, err := svc.Recompute(ctx, *userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stats recompute failed for user %d: %v\n", *userID, err)
			rt.Close()
			os.Exit(1)
		}
		fmt.Printf("Updated user %d: solved=%d quizzes=%d accuracy=%.2f\n",
			*userID, profile.TotalQuestionsSolved, profile.TotalQuizzesCompleted, profile.OverallAccuracy)
		return
	}

	summary, err := svc.RecomputeAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats recompute failed: %v\n", err)
		rt.Close()
		os.Exit(1)
	}
	fmt.Printf("Users scanned: %d, updated: %d, skipped: %d\n", summary.Scanned, summary.Updated, summary.Skipped)
}
