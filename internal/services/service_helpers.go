package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
)

// requireAdmin loads userID and rejects anyone without the admin role
func requireAdmin(ctx context.Context, repo repositories.Repository, db *gorm.DB, userID uint, resource, action string, resourceID uint) error {
	user, err := repo.User().GetByID(ctx, db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewPermissionError(userID, resourceID, resource, action, "unknown user")
		}
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !user.IsAdmin() {
		return NewPermissionError(userID, resourceID, resource, action, "admin role required")
	}
	return nil
}

func marshalTestCases(cases []models.TestCase) (datatypes.JSON, error) {
	if len(cases) == 0 {
		return datatypes.JSON("[]"), nil
	}
	data, err := json.Marshal(cases)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test cases: %w", err)
	}
	return datatypes.JSON(data), nil
}

// uniqueIDs drops zeros and repeats, keeping first occurrences in order
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// existingInOrder keeps the ids present in questions, in the order of ids
func existingInOrder(ids []uint, questions []*models.Question) []uint {
	found := make(map[uint]bool, len(questions))
	for _, q := range questions {
		found[q.ID] = true
	}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if found[id] {
			out = append(out, id)
		}
	}
	return out
}
