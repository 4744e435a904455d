// Package seed loads catalog questions from a spreadsheet or builds a generated practice set.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

// Columns is the header row a question workbook must carry. Only title, topic,
// category and difficulty are required; the rest may be missing or empty.
var Columns = []string{
	"title", "description", "topic", "category", "difficulty",
	"template_code", "solution_code", "explanation",
}

var requiredColumns = []string{"title", "topic", "category", "difficulty"}

// Result counts what Import did
type Result struct {
	Created int
	Skipped int
}

// ReadWorkbook parses the first sheet of an .xlsx workbook into questions
func ReadWorkbook(r io.Reader) ([]*models.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]*models.Question, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	questions := make([]*models.Question, 0, len(rows)-1)
	for n, row := range rows[1:] {
		title := cell(row, "title")
		if title == "" {
			continue
		}
		// Spreadsheet rows are 1-based and the header is row 1
		line := n + 2

		q := &models.Question{
			Title:        title,
			Description:  cell(row, "description"),
			Topic:        models.Topic(strings.ToLower(cell(row, "topic"))),
			Category:     strings.ToLower(cell(row, "category")),
			Difficulty:   models.DifficultyLevel(strings.ToLower(cell(row, "difficulty"))),
			TemplateCode: cell(row, "template_code"),
			SolutionCode: cell(row, "solution_code"),
			Explanation:  cell(row, "explanation"),
			TestCases:    datatypes.JSON("[]"),
		}
		if err := validate(q); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func validate(q *models.Question) error {
	switch {
	case len(q.Title) > 255:
		return fmt.Errorf("title longer than 255 characters")
	case !models.IsValidChoice(models.Topics, string(q.Topic)):
		return fmt.Errorf("unknown topic %q", q.Topic)
	case !models.IsValidChoice(models.Categories, q.Category):
		return fmt.Errorf("unknown category %q", q.Category)
	case !models.IsValidChoice(models.Difficulties, string(q.Difficulty)):
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}

// Generate builds perTopic questions for every topic. The output depends only on perTopic,
// so re-running with the same value creates nothing new.
func Generate(perTopic int) []*models.Question {
	questions := make([]*models.Question, 0, perTopic*len(models.Topics))
	for t, topic := range models.Topics {
		for i := 0; i < perTopic; i++ {
			category := models.Categories[(t*perTopic+i)%len(models.Categories)]
			difficulty := models.Difficulties[i%len(models.Difficulties)]

			a, b := i+1, t+2
			testCases, _ := json.Marshal([]models.TestCase{
				{Input: []int{a, b}, Output: a + b},
				{Input: []int{0, b}, Output: b},
			})

			questions = append(questions, &models.Question{
				Title:        fmt.Sprintf("%s #%d: %s", topic.Name, i+1, category.Name),
				Description:  fmt.Sprintf("Return the sum of the two integers. Warm-up for %s.", category.Name),
				Topic:        models.Topic(topic.Value),
				Category:     category.Value,
				Difficulty:   models.DifficultyLevel(difficulty.Value),
				TemplateCode: "def solve(a, b):\n    pass\n",
				SolutionCode: "def solve(a, b):\n    return a + b\n",
				Explanation:  "Add the inputs.",
				TestCases:    datatypes.JSON(testCases),
			})
		}
	}
	return questions
}

// Import inserts questions whose title is not in the catalog yet. Titles repeated
// within questions are inserted once.
func Import(ctx context.Context, db *gorm.DB, repo repositories.Repository, logger *slog.Logger, questions []*models.Question) (*Result, error) {
	titles := make([]string, 0, len(questions))
	for _, q := range questions {
		titles = append(titles, q.Title)
	}

	result := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.Question().ExistingTitles(ctx, tx, titles)
		if err != nil {
			return err
		}

		fresh := make([]*models.Question, 0, len(questions))
		for _, q := range questions {
			if existing[q.Title] {
				result.Skipped++
				continue
			}
			existing[q.Title] = true
			fresh = append(fresh, q)
		}

		if err := repo.Question().CreateBatch(ctx, tx, fresh); err != nil {
			return err
		}
		result.Created = len(fresh)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Questions seeded", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}
