package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/emberflow/emberflow/internal/platform/errors"
)

var fixedNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestCreateActivity(t *testing.T) {
	got, err := CreateActivity(CreateActivityInput{
		UserID: " user-1 ",
		Kind:   ActivityKindActivation,
	}, fixedClock, staticID("act-1"))
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}

	if got.ID != "act-1" {
		t.Errorf("ID = %q, want act-1", got.ID)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want trimmed user-1", got.UserID)
	}
	if !got.OccurredAt.Equal(fixedNow) {
		t.Errorf("OccurredAt = %v, want clock value %v", got.OccurredAt, fixedNow)
	}
}

func TestCreateActivityExplicitTimestamp(t *testing.T) {
	occurred := fixedNow.Add(-3 * time.Hour)
	got, err := CreateActivity(CreateActivityInput{
		UserID:     "user-1",
		Kind:       ActivityKindRitual,
		OccurredAt: occurred,
	}, fixedClock, staticID("act-2"))
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if !got.OccurredAt.Equal(occurred) {
		t.Errorf("OccurredAt = %v, want %v", got.OccurredAt, occurred)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    CreateActivityInput
		wantCode apperrors.Code
	}{
		{
			name:     "missing user id",
			input:    CreateActivityInput{Kind: ActivityKindActivation},
			wantCode: apperrors.CodeActivityEmptyUserID,
		},
		{
			name:     "blank user id",
			input:    CreateActivityInput{UserID: "   ", Kind: ActivityKindActivation},
			wantCode: apperrors.CodeActivityEmptyUserID,
		},
		{
			name:     "missing kind",
			input:    CreateActivityInput{UserID: "user-1"},
			wantCode: apperrors.CodeActivityInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateActivity(tt.input, fixedClock, staticID("x"))
			if err == nil {
				t.Fatal("CreateActivity succeeded, want error")
			}
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestParseActivityKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ActivityKind
		wantErr bool
	}{
		{"activation", ActivityKindActivation, false},
		{"RITUAL", ActivityKindRitual, false},
		{" ritual ", ActivityKindRitual, false},
		{"", ActivityKindUnspecified, true},
		{"meditation", ActivityKindUnspecified, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseActivityKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseActivityKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseActivityKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCreateActivityIDGeneratorError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	_, err := CreateActivity(CreateActivityInput{
		UserID: "user-1",
		Kind:   ActivityKindActivation,
	}, fixedClock, func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped generator error", err)
	}
}
