package repositories

import "context"

// Repository aggregates every repository used by the services
type Repository interface {
	// Catalog
	Question() QuestionRepository
	Quiz() QuizRepository

	// Practice
	Session() SessionRepository
	Answer() AnswerRepository

	// Users
	User() UserRepository
	Profile() ProfileRepository
	Bookmark() BookmarkRepository

	// Rankings
	Leaderboard() LeaderboardRepository

	// Bulk maintenance used by the batch commands
	Maintenance() MaintenanceRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
