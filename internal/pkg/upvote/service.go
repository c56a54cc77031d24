// Package upvote counts visitor upvotes at most once per device.
//
// The server increments the counter atomically. The "one per device" rule
// is enforced only through the device marker, so a visitor who clears it can
// vote again.
package upvote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrMissingBusinessID = errors.New("business id is required")
	ErrNotFound          = errors.New("business not found")
	ErrAlreadyUpvoted    = errors.New("already upvoted from this device")
)

// Counter is the storage the service needs.
type Counter interface {
	IncrementUpvotes(id string) (int64, error)
}

type Service struct {
	counter Counter
}

func NewService(counter Counter) *Service {
	return &Service{counter: counter}
}

// CanUpvote is true unless the device marker already lists the business.
func CanUpvote(state DeviceState, businessID string) bool {
	return !state.Has(businessID)
}

// Upvote increments the stored counter and returns the new total. Failures
// are returned as is; the caller decides whether to retry.
func (s *Service) Upvote(ctx context.Context, businessID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := strings.TrimSpace(businessID)
	if id == "" {
		return 0, ErrMissingBusinessID
	}

	count, err := s.counter.IncrementUpvotes(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment upvotes: %w", err)
	}
	return count, nil
}

// UpvoteFromDevice applies the per-device rule, increments, and returns the
// updated marker state for the client to keep.
func (s *Service) UpvoteFromDevice(ctx context.Context, state DeviceState, businessID string) (int64, DeviceState, error) {
	id := strings.TrimSpace(businessID)
	if id == "" {
		return 0, state, ErrMissingBusinessID
	}
	if !CanUpvote(state, id) {
		return 0, state, ErrAlreadyUpvoted
	}
	count, err := s.Upvote(ctx, id)
	if err != nil {
		return 0, state, err
	}
	return count, state.With(id), nil
}
