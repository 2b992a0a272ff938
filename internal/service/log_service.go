package service

import (
	"context"
	"time"

	"backend/internal/apperror"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// LogQuery carries the caller-facing filter set for a lab's audit history.
// All fields are optional; zero limit falls back to the default page size.
type LogQuery struct {
	Limit     int
	Offset    int
	Action    string
	Source    string
	StartDate *time.Time
	EndDate   *time.Time
	UserID    string
	MemberID  string
}

type LogEntryResponse struct {
	ID              string          `json:"id"`
	LabItemID       *string         `json:"lab_item_id"` // null once the item is deleted
	UserID          string          `json:"user_id"`
	Username        string          `json:"username,omitempty"`
	MemberID        *string         `json:"member_id"`
	Action          model.LogAction `json:"action"`
	Source          model.LogSource `json:"source"`
	PreviousValues  *model.Snapshot `json:"previous_values,omitempty"`
	NewValues       *model.Snapshot `json:"new_values,omitempty"`
	QuantityChanged *int            `json:"quantity_changed,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type LogPage struct {
	Logs        []LogEntryResponse `json:"logs"`
	TotalCount  int64              `json:"totalCount"`
	TotalPages  int64              `json:"totalPages"`
	CurrentPage int64              `json:"currentPage"`
	HasNextPage bool               `json:"hasNextPage"`
	HasPrevPage bool               `json:"hasPrevPage"`
}

const (
	defaultLogLimit = 20
	maxLogLimit     = 100
)

// LogService reconstructs per-lab audit history, independent of the write
// path except for sharing the log schema. Entries whose item has been
// deleted are matched through their snapshot lab attribution.
type LogService interface {
	QueryForLab(ctx context.Context, labID uuid.UUID, query LogQuery) (*LogPage, error)
}

type logService struct {
	logRepo repository.InventoryLogRepository
}

func NewLogService(logRepo repository.InventoryLogRepository) LogService {
	return &logService{logRepo: logRepo}
}

func (s *logService) QueryForLab(ctx context.Context, labID uuid.UUID, query LogQuery) (*LogPage, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	logs, total, err := s.logRepo.ListForLab(ctx, labID, filter)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "failed to query inventory logs", err)
	}

	entries := make([]LogEntryResponse, 0, len(logs))
	for i := range logs {
		entries = append(entries, toLogEntryResponse(&logs[i]))
	}

	limit := int64(filter.Limit)
	offset := int64(filter.Offset)
	totalPages := (total + limit - 1) / limit
	return &LogPage{
		Logs:        entries,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: offset/limit + 1,
		HasNextPage: offset+limit < total,
		HasPrevPage: offset > 0,
	}, nil
}

func buildFilter(query LogQuery) (repository.LogFilter, error) {
	filter := repository.LogFilter{
		Limit:     query.Limit,
		Offset:    query.Offset,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultLogLimit
	}
	// Caller-controlled limit is clamped server-side to bound result sets.
	if filter.Limit > maxLogLimit {
		filter.Limit = maxLogLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if query.Action != "" {
		if !model.ValidLogAction(query.Action) {
			return filter, apperror.Newf(apperror.InvalidInput, "unknown action %q", query.Action)
		}
		action := model.LogAction(query.Action)
		filter.Action = &action
	}
	if query.Source != "" {
		if !model.ValidLogSource(query.Source) {
			return filter, apperror.Newf(apperror.InvalidInput, "unknown source %q", query.Source)
		}
		source := model.LogSource(query.Source)
		filter.Source = &source
	}
	if query.UserID != "" {
		id, err := uuid.Parse(query.UserID)
		if err != nil {
			return filter, apperror.New(apperror.InvalidInput, "invalid userId filter")
		}
		filter.UserID = &id
	}
	if query.MemberID != "" {
		id, err := uuid.Parse(query.MemberID)
		if err != nil {
			return filter, apperror.New(apperror.InvalidInput, "invalid memberId filter")
		}
		filter.MemberID = &id
	}

	return filter, nil
}

func toLogEntryResponse(l *model.InventoryLog) LogEntryResponse {
	entry := LogEntryResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		Action:          l.Action,
		Source:          l.Source,
		PreviousValues:  l.PreviousValues,
		NewValues:       l.NewValues,
		QuantityChanged: l.QuantityChanged,
		Reason:          l.Reason,
		CreatedAt:       l.CreatedAt,
	}
	if l.LabItemID != nil {
		id := l.LabItemID.String()
		entry.LabItemID = &id
	}
	if l.MemberID != nil {
		id := l.MemberID.String()
		entry.MemberID = &id
	}
	if l.User != nil {
		entry.Username = l.User.Username
	}
	return entry
}
