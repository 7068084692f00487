package services

import (
	"context"
	"testing"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/types"
)

func TestEventLogValidation(t *testing.T) {
	cases := []struct {
		name     string
		input    EventInput
		wantCode string
	}{
		{
			name:  "valid_event",
			input: EventInput{Type: "goal_created", SourceFeature: "goals"},
		},
		{
			name:  "valid_event_with_payload",
			input: EventInput{Type: "mood_checkin_completed", SourceFeature: "dashboard", Data: map[string]any{"mood_value": 3}},
		},
		{
			name:  "type_is_normalized",
			input: EventInput{Type: "  Goal_Created ", SourceFeature: "goals"},
		},
		{
			name:     "unknown_source_feature",
			input:    EventInput{Type: "goal_created", SourceFeature: "billing"},
			wantCode: apierr.CodeValidation,
		},
		{
			name:     "empty_type",
			input:    EventInput{Type: "", SourceFeature: "goals"},
			wantCode: apierr.CodeValidation,
		},
		{
			name:     "type_with_spaces_inside",
			input:    EventInput{Type: "goal created", SourceFeature: "goals"},
			wantCode: apierr.CodeValidation,
		},
		{
			name:     "type_too_short",
			input:    EventInput{Type: "ab", SourceFeature: "goals"},
			wantCode: apierr.CodeValidation,
		},
		{
			name:     "bad_source_id",
			input:    EventInput{Type: "goal_created", SourceFeature: "goals", SourceID: "not-a-uuid"},
			wantCode: apierr.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServiceStack(t)
			ev, err := s.eventSvc.Log(s.ctx, nil, tc.input)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("Log(%+v) unexpected error: %v", tc.input, err)
				}
				if ev.UserID != s.userID {
					t.Fatalf("event user = %s, want %s", ev.UserID, s.userID)
				}
				return
			}
			if err == nil {
				t.Fatalf("Log(%+v) expected %s error, got nil", tc.input, tc.wantCode)
			}
			if !apierr.IsCode(err, tc.wantCode) {
				t.Fatalf("Log(%+v) error code = %q, want %q", tc.input, apierr.CodeOf(err), tc.wantCode)
			}
		})
	}
}

func TestEventLogRequiresIdentity(t *testing.T) {
	s := newServiceStack(t)
	_, err := s.eventSvc.Log(context.Background(), nil, EventInput{Type: "goal_created", SourceFeature: "goals"})
	if !apierr.IsCode(err, apierr.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestEventLogIsAppendOnly(t *testing.T) {
	s := newServiceStack(t)
	ev := s.logEvent(t, EventInput{Type: "tool_used", SourceFeature: types.FeatureTools})

	var count int64
	if err := s.db.Model(&types.UserEvent{}).Where("id = ?", ev.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("event rows = %d, want 1", count)
	}
}
