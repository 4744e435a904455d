package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

const defaultCustomTitle = "Custom Quiz"

type sessionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	grader    Grader
	publisher events.EventPublisher
	now       func() time.Time
}

func NewSessionService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	grader Grader,
	publisher events.EventPublisher,
) SessionService {
	if grader == nil {
		grader = NewStubGrader()
	}
	return &sessionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		grader:    grader,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a session over a quiz template's current question list
func (s *sessionService) Start(ctx context.Context, quizID uint, userID uint) (*SessionResponse, error) {
	var sessionID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.repo.Quiz().GetByID(ctx, tx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if !quiz.IsActive {
			return ErrQuizInactive
		}

		questionIDs, err := s.repo.Quiz().GetQuestionIDs(ctx, tx, quizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz questions: %w", err)
		}

		session := &models.QuizSession{
			UserID:         userID,
			QuizID:         &quiz.ID,
			Title:          quiz.Name,
			QuizType:       quiz.QuizType,
			TimeLimit:      quiz.TimeLimit,
			Status:         models.SessionStarted,
			TotalQuestions: len(questionIDs),
			TimeStarted:    s.now(),
		}
		if err := s.repo.Session().Create(ctx, tx, session, questionIDs); err != nil {
			return err
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session started", "session_id", sessionID, "quiz_id", quizID, "user_id", userID)
	return s.load(ctx, sessionID)
}

// CreateCustom opens a session over caller-chosen questions. Unknown ids are dropped
// and total_questions counts only the ones that exist.
func (s *sessionService) CreateCustom(ctx context.Context, req *CreateCustomSessionRequest, userID uint) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ids := uniqueIDs(req.Questions)
	if len(ids) == 0 {
		return nil, ErrNoQuestions
	}

	title := req.Title
	if title == "" {
		title = defaultCustomTitle
	}
	quizType := req.QuizType
	if quizType == "" {
		quizType = models.QuizPractice
	}

	var sessionID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions, err := s.repo.Question().GetByIDs(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		valid := existingInOrder(ids, questions)
		if len(valid) == 0 {
			return ErrNoValidQuestions
		}

		session := &models.QuizSession{
			UserID:         userID,
			Title:          title,
			QuizType:       quizType,
			TimeLimit:      req.TimeLimit,
			Status:         models.SessionInProgress,
			TotalQuestions: len(valid),
			TimeStarted:    s.now(),
		}
		if err := s.repo.Session().Create(ctx, tx, session, valid); err != nil {
			return err
		}
		sessionID = session.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Custom session created", "session_id", sessionID, "user_id", userID, "questions", len(ids))
	return s.load(ctx, sessionID)
}

// SubmitAnswer grades code for one question of an open session and folds the result
// into the session totals. Closed or full sessions are rejected without writing anything.
func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, userID uint) (*models.Answer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.owned(ctx, s.db, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := closedError(session.Status); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, s.db, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	inSession, err := s.repo.Session().HasQuestion(ctx, s.db, sessionID, question.ID)
	if err != nil {
		return nil, err
	}
	if !inSession {
		return nil, ErrQuestionNotInSession
	}

	result, err := s.grader.Grade(ctx, question, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to grade answer: %w", err)
	}

	testResults, err := json.Marshal(result.TestResults)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test results: %w", err)
	}

	answer := &models.Answer{
		SessionID:   sessionID,
		QuestionID:  question.ID,
		UserCode:    req.Code,
		IsCorrect:   result.Correct,
		Score:       result.Score,
		Feedback:    result.Feedback,
		TestResults: datatypes.JSON(testResults),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.repo.Session().ApplyAnswer(ctx, tx, sessionID, repositories.AnswerOutcome{
			Correct: result.Correct,
			Score:   result.Score,
		})
		if err != nil {
			return err
		}
		if !applied {
			current, err := s.repo.Session().GetByID(ctx, tx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to reload session: %w", err)
			}
			if err := closedError(current.Status); err != nil {
				return err
			}
			return ErrSessionFull
		}

		if err := s.repo.Answer().Create(ctx, tx, answer); err != nil {
			return err
		}

		if result.Correct {
			if err := s.repo.Question().IncrementSolvedCount(ctx, tx, question.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer submitted",
		"session_id", sessionID,
		"question_id", question.ID,
		"user_id", userID,
		"correct", result.Correct)

	return answer, nil
}

// Finish completes an open session and announces it to the stats subscriber
func (s *sessionService) Finish(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error) {
	session, err := s.close(ctx, sessionID, userID, models.SessionCompleted)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionCompleted, userID, events.SessionCompletedData{
		SessionID:      session.ID,
		UserID:         session.UserID,
		QuizID:         session.QuizID,
		TotalScore:     session.TotalScore,
		TotalQuestions: session.TotalQuestions,
		CorrectAnswers: session.CorrectAnswers,
		Accuracy:       session.Accuracy,
		CompletedAt:    endedAt(session),
	})

	return NewSessionResponse(session), nil
}

// Abandon closes an open session without counting it toward stats
func (s *sessionService) Abandon(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error) {
	session, err := s.close(ctx, sessionID, userID, models.SessionAbandoned)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionAbandoned, userID, events.SessionAbandonedData{
		SessionID:   session.ID,
		UserID:      session.UserID,
		AbandonedAt: endedAt(session),
	})

	return NewSessionResponse(session), nil
}

func (s *sessionService) close(ctx context.Context, sessionID, userID uint, status models.SessionStatus) (*models.QuizSession, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.owned(ctx, tx, sessionID, userID)
		if err != nil {
			return err
		}
		if err := closedError(session.Status); err != nil {
			return err
		}

		ended := s.now()
		spent := int(ended.Sub(session.TimeStarted).Seconds())
		if spent < 0 {
			spent = 0
		}

		closed, err := s.repo.Session().Close(ctx, tx, sessionID, repositories.SessionClose{
			Status:    status,
			EndedAt:   ended,
			TimeSpent: spent,
		})
		if err != nil {
			return err
		}
		if !closed {
			current, err := s.repo.Session().GetByID(ctx, tx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to reload session: %w", err)
			}
			if err := closedError(current.Status); err != nil {
				return err
			}
			return ErrSessionNotActive
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Session().GetByIDWithDetails(ctx, s.db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}

	s.logger.Info("Session closed", "session_id", sessionID, "user_id", userID, "status", status)
	return session, nil
}

// publish never fails the request; the session row is already committed
func (s *sessionService) publish(ctx context.Context, eventType string, userID uint, data interface{}) {
	if s.publisher == nil {
		return
	}

	event, err := events.NewEvent(eventType, userID, data)
	if err != nil {
		s.logger.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicSessions, event); err != nil {
		s.logger.Error("Failed to publish event", "type", eventType, "event_id", event.ID, "error", err)
	}
}

func (s *sessionService) Get(ctx context.Context, sessionID uint, userID uint) (*SessionResponse, error) {
	if _, err := s.owned(ctx, s.db, sessionID, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

func (s *sessionService) List(ctx context.Context, userID uint, filters repositories.SessionFilters) (*SessionListResponse, error) {
	sessions, total, err := s.repo.Session().ListByUser(ctx, s.db, userID, filters)
	if err != nil {
		return nil, err
	}

	out := make([]*SessionResponse, len(sessions))
	for i, session := range sessions {
		out[i] = NewSessionResponse(session)
	}
	return &SessionListResponse{Sessions: out, Total: total}, nil
}

func (s *sessionService) GetAnswers(ctx context.Context, sessionID uint, userID uint) ([]*models.Answer, error) {
	if _, err := s.owned(ctx, s.db, sessionID, userID); err != nil {
		return nil, err
	}
	return s.repo.Answer().ListBySession(ctx, s.db, sessionID)
}

// RunCode echoes the submitted test cases back as passing without executing anything
func (s *sessionService) RunCode(ctx context.Context, req *RunCodeRequest) (*RunCodeResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return &RunCodeResponse{Results: placeholderResults(req.TestCases)}, nil
}

func (s *sessionService) load(ctx context.Context, sessionID uint) (*SessionResponse, error) {
	session, err := s.repo.Session().GetByIDWithDetails(ctx, s.db, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return NewSessionResponse(session), nil
}

// owned hides sessions of other users behind ErrSessionNotFound
func (s *sessionService) owned(ctx context.Context, tx *gorm.DB, sessionID, userID uint) (*models.QuizSession, error) {
	session, err := s.repo.Session().GetByID(ctx, tx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func closedError(status models.SessionStatus) error {
	switch status {
	case models.SessionCompleted:
		return ErrSessionCompleted
	case models.SessionAbandoned:
		return ErrSessionNotActive
	}
	return nil
}

func endedAt(session *models.QuizSession) time.Time {
	if session.TimeEnded != nil {
		return *session.TimeEnded
	}
	return session.UpdatedAt
}
