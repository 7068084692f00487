package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/types"
)

func newFeedbackService(t *testing.T) (FeedbackService, *serviceStack) {
	t.Helper()
	s := newServiceStack(t)
	svc := NewFeedbackService(s.db, newTestLogger(), repos.NewFeedbackRepo(s.db, newTestLogger()))
	return svc, s
}

func TestFeedbackValidation(t *testing.T) {
	svc, s := newFeedbackService(t)
	targetID := uuid.New().String()
	badRating := 9

	cases := []struct {
		name  string
		input FeedbackInput
	}{
		{name: "unknown_type", input: FeedbackInput{FeedbackType: "meh", TargetType: types.FeedbackTargetNudge, TargetID: targetID}},
		{name: "unknown_target", input: FeedbackInput{FeedbackType: types.FeedbackThumbsUp, TargetType: "widget", TargetID: targetID}},
		{name: "bad_target_id", input: FeedbackInput{FeedbackType: types.FeedbackThumbsUp, TargetType: types.FeedbackTargetNudge, TargetID: "not-a-uuid"}},
		{name: "rating_out_of_range", input: FeedbackInput{FeedbackType: types.FeedbackRating, TargetType: types.FeedbackTargetNudge, TargetID: targetID, Rating: &badRating}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(s.ctx, nil, tc.input)
			if !apierr.IsCode(err, apierr.CodeValidation) {
				t.Fatalf("err = %v, want %s", err, apierr.CodeValidation)
			}
		})
	}
}

func TestFeedbackRequiresIdentity(t *testing.T) {
	svc, _ := newFeedbackService(t)
	_, err := svc.Record(context.Background(), nil, FeedbackInput{
		FeedbackType: types.FeedbackThumbsUp,
		TargetType:   types.FeedbackTargetNudge,
		TargetID:     uuid.New().String(),
	})
	if !apierr.IsCode(err, apierr.CodeUnauthorized) {
		t.Fatalf("err = %v, want %s", err, apierr.CodeUnauthorized)
	}
}

func TestFeedbackRecord(t *testing.T) {
	svc, s := newFeedbackService(t)
	rating := 4
	target := uuid.New()

	fb, err := svc.Record(s.ctx, nil, FeedbackInput{
		FeedbackType: "Rating",
		TargetType:   types.FeedbackTargetNudge,
		TargetID:     target.String(),
		Rating:       &rating,
		Comment:      "  helpful  ",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if fb.ID == uuid.Nil {
		t.Error("feedback id not assigned")
	}
	if fb.UserID != s.userID {
		t.Errorf("user_id = %s, want %s", fb.UserID, s.userID)
	}
	if fb.FeedbackType != types.FeedbackRating {
		t.Errorf("feedback_type = %q, want normalized %q", fb.FeedbackType, types.FeedbackRating)
	}
	if fb.TargetID != target {
		t.Errorf("target_id = %s, want %s", fb.TargetID, target)
	}
	if fb.Rating == nil || *fb.Rating != 4 {
		t.Errorf("rating = %v, want 4", fb.Rating)
	}
	if fb.Comment != "helpful" {
		t.Errorf("comment = %q, want trimmed", fb.Comment)
	}

	var count int64
	if err := s.db.Model(&types.Feedback{}).Where("user_id = ?", s.userID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored feedback rows = %d, want 1", count)
	}
}
