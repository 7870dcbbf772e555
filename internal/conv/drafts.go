package conv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func (s *Store) loadDrafts(ctx context.Context, shopID string) ([]Draft, error) {
	raw, err := s.rdb.Get(ctx, shopDraftsKey(shopID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	var drafts []Draft
	if err := json.Unmarshal(raw, &drafts); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return drafts, nil
}

func (s *Store) saveDrafts(ctx context.Context, shopID string, drafts []Draft) error {
	raw, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("failed to encode drafts: %w", err)
	}
	if err := s.rdb.Set(ctx, shopDraftsKey(shopID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}
	return nil
}

// AddDraft stores draft, first removing any existing draft for the same
// customer (one draft per customer at most), and returns the assigned draft id.
func (s *Store) AddDraft(ctx context.Context, shopID string, draft Draft) (string, error) {
	drafts, err := s.loadDrafts(ctx, shopID)
	if err != nil {
		return "", err
	}

	filtered := drafts[:0]
	for _, d := range drafts {
		if d.CustomerID != draft.CustomerID {
			filtered = append(filtered, d)
		}
	}

	draft.DraftID = uuid.NewString()
	filtered = append(filtered, draft)

	if err := s.saveDrafts(ctx, shopID, filtered); err != nil {
		return "", err
	}
	return draft.DraftID, nil
}

// UpdateDraft replaces the stored draft with matching DraftID.
func (s *Store) UpdateDraft(ctx context.Context, shopID, draftID string, draft Draft) error {
	drafts, err := s.loadDrafts(ctx, shopID)
	if err != nil {
		return err
	}
	for i, d := range drafts {
		if d.DraftID == draftID {
			draft.DraftID = draftID
			drafts[i] = draft
			return s.saveDrafts(ctx, shopID, drafts)
		}
	}
	return nil
}

// RemoveDraft deletes the draft with the given id, if present.
func (s *Store) RemoveDraft(ctx context.Context, shopID, draftID string) error {
	drafts, err := s.loadDrafts(ctx, shopID)
	if err != nil {
		return err
	}
	out := drafts[:0]
	for _, d := range drafts {
		if d.DraftID != draftID {
			out = append(out, d)
		}
	}
	return s.saveDrafts(ctx, shopID, out)
}

// ListDrafts returns every pending draft for the shop.
func (s *Store) ListDrafts(ctx context.Context, shopID string) ([]Draft, error) {
	return s.loadDrafts(ctx, shopID)
}

// FirstDraft returns the shop's oldest pending draft, or nil if none exist.
func (s *Store) FirstDraft(ctx context.Context, shopID string) (*Draft, error) {
	drafts, err := s.loadDrafts(ctx, shopID)
	if err != nil || len(drafts) == 0 {
		return nil, err
	}
	return &drafts[0], nil
}

// ClearDrafts deletes every pending draft for the shop.
func (s *Store) ClearDrafts(ctx context.Context, shopID string) error {
	return s.rdb.Del(ctx, shopDraftsKey(shopID)).Err()
}

// SetPendingEmail records a confirmed invoice awaiting a delivery recipient.
func (s *Store) SetPendingEmail(ctx context.Context, shopID string, pending PendingEmail) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending email: %w", err)
	}
	return s.rdb.Set(ctx, shopEmailKey(shopID), raw, s.ttl).Err()
}

// GetPendingEmail returns the shop's pending email, or nil if none is set.
func (s *Store) GetPendingEmail(ctx context.Context, shopID string) (*PendingEmail, error) {
	raw, err := s.rdb.Get(ctx, shopEmailKey(shopID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending email: %w", err)
	}
	var pending PendingEmail
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending email: %w", err)
	}
	return &pending, nil
}

// ClearPendingEmail removes the shop's pending email marker.
func (s *Store) ClearPendingEmail(ctx context.Context, shopID string) error {
	return s.rdb.Del(ctx, shopEmailKey(shopID)).Err()
}

// SetPendingSendConfirmation records a channel-send awaiting "haan/nahi".
func (s *Store) SetPendingSendConfirmation(ctx context.Context, shopID string, pending PendingSendConfirmation) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending send confirmation: %w", err)
	}
	return s.rdb.Set(ctx, shopSendConfKey(shopID), raw, s.ttl).Err()
}

// GetPendingSendConfirmation returns the shop's pending send confirmation, or nil.
func (s *Store) GetPendingSendConfirmation(ctx context.Context, shopID string) (*PendingSendConfirmation, error) {
	raw, err := s.rdb.Get(ctx, shopSendConfKey(shopID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending send confirmation: %w", err)
	}
	var pending PendingSendConfirmation
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending send confirmation: %w", err)
	}
	return &pending, nil
}

// ClearPendingSendConfirmation removes the shop's pending send confirmation marker.
func (s *Store) ClearPendingSendConfirmation(ctx context.Context, shopID string) error {
	return s.rdb.Del(ctx, shopSendConfKey(shopID)).Err()
}
