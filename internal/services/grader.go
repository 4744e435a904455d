package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// Grader evaluates a code submission for a question
type Grader interface {
	Grade(ctx context.Context, question *models.Question, code string) (*GradeResult, error)
}

type GradeResult struct {
	Correct     bool
	Score       int
	Feedback    string
	TestResults []models.TestResult
}

// StubScore is awarded for every submission graded by StubGrader
const StubScore = 10

// StubGrader marks every submission correct without running it.
// Replace with a sandboxed runner once one exists.
type StubGrader struct{}

func NewStubGrader() Grader {
	return StubGrader{}
}

func (StubGrader) Grade(ctx context.Context, question *models.Question, code string) (*GradeResult, error) {
	cases, err := decodeTestCases(question.TestCases)
	if err != nil {
		return nil, fmt.Errorf("failed to decode test cases for question %d: %w", question.ID, err)
	}

	return &GradeResult{
		Correct:     true,
		Score:       StubScore,
		TestResults: placeholderResults(cases),
	}, nil
}

func decodeTestCases(raw []byte) ([]models.TestCase, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var cases []models.TestCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// placeholderResults reports every case as passed with no captured output
func placeholderResults(cases []models.TestCase) []models.TestResult {
	results := make([]models.TestResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, models.TestResult{
			Input:    tc.Input,
			Expected: tc.Output,
			Passed:   true,
			Output:   nil,
		})
	}
	return results
}
