package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberflow/emberflow/internal/id"
	apperrors "github.com/emberflow/emberflow/internal/platform/errors"
)

// ActivityKind describes what kind of practice produced an event.
type ActivityKind int

const (
	// ActivityKindUnspecified represents an invalid activity kind.
	ActivityKindUnspecified ActivityKind = iota
	// ActivityKindActivation is a short daily engagement with an anchor.
	ActivityKindActivation
	// ActivityKindRitual is a completed timed charging ceremony.
	ActivityKindRitual
)

func (k ActivityKind) String() string {
	switch k {
	case ActivityKindActivation:
		return "activation"
	case ActivityKindRitual:
		return "ritual"
	default:
		return "unspecified"
	}
}

// ParseActivityKind parses an activity kind name.
func ParseActivityKind(value string) (ActivityKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "activation":
		return ActivityKindActivation, nil
	case "ritual":
		return ActivityKindRitual, nil
	default:
		return ActivityKindUnspecified, apperrors.WithMetadata(
			apperrors.CodeActivityInvalidKind,
			"unknown activity kind",
			map[string]string{"Kind": value},
		)
	}
}

// Activity represents one completed practice session.
type Activity struct {
	ID         string
	UserID     string
	Kind       ActivityKind
	OccurredAt time.Time
}

// CreateActivityInput describes the data needed to record an activity.
type CreateActivityInput struct {
	UserID string
	Kind   ActivityKind
	// OccurredAt is optional; zero means "now".
	OccurredAt time.Time
}

// CreateActivity creates a new activity event with a generated ID.
func CreateActivity(input CreateActivityInput, now func() time.Time, idGenerator func() (string, error)) (Activity, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateActivityInput(input)
	if err != nil {
		return Activity{}, err
	}

	activityID, err := idGenerator()
	if err != nil {
		return Activity{}, fmt.Errorf("generate activity id: %w", err)
	}

	occurredAt := normalized.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now().UTC()
	}

	return Activity{
		ID:         activityID,
		UserID:     normalized.UserID,
		Kind:       normalized.Kind,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// NormalizeCreateActivityInput trims and validates activity input.
func NormalizeCreateActivityInput(input CreateActivityInput) (CreateActivityInput, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return CreateActivityInput{}, apperrors.New(apperrors.CodeActivityEmptyUserID, "user id is required")
	}
	if input.Kind == ActivityKindUnspecified {
		return CreateActivityInput{}, apperrors.New(apperrors.CodeActivityInvalidKind, "activity kind is required")
	}
	return input, nil
}
