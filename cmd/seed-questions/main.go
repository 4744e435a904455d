// Command seed-questions fills the catalog from a workbook or with a generated practice set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/batch"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/seed"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "import questions from this .xlsx file (columns: "+strings.Join(seed.Columns, ", ")+")")
	perTopic := flag.Int("per-topic", 5, "generated questions per topic when -xlsx is not set")
	flag.Parse()

	questions, err := load(*xlsxPath, *perTopic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	rt, err := batch.NewRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	res, err := seed.Import(context.Background(), rt.DB, rt.Repository(), rt.Logger, questions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		rt.Close()
		os.Exit(1)
	}
	fmt.Printf("Created %d questions, skipped %d existing\n", res.Created, res.Skipped)
}

func load(xlsxPath string, perTopic int) ([]*models.Question, error) {
	if xlsxPath == "" {
		if perTopic < 1 {
			return nil, fmt.Errorf("-per-topic must be at least 1")
		}
		return seed.Generate(perTopic), nil
	}

	f, err := os.Open(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", xlsxPath, err)
	}
	defer f.Close()

	return seed.ReadWorkbook(f)
}
