package conv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpTTL bounds how long a delete-confirmation code remains valid. The code
// itself is never part of any response payload the voice/HTTP surface
// returns — only SetDeleteOTP/GetDeleteOTP touch it.
const otpTTL = 10 * time.Minute

func deleteOTPKey(shopID string, customerID int) string {
	return fmt.Sprintf("shop:%s:delete_otp:%d", shopID, customerID)
}

// SetDeleteOTP stores the one-time confirmation code for an admin-gated
// customer deletion, keyed by shop and customer so concurrent deletions of
// different customers don't collide.
func (s *Store) SetDeleteOTP(ctx context.Context, shopID string, customerID int, code string) error {
	return s.rdb.Set(ctx, deleteOTPKey(shopID, customerID), code, otpTTL).Err()
}

// GetDeleteOTP returns the stored code, or "" if none is pending or it expired.
func (s *Store) GetDeleteOTP(ctx context.Context, shopID string, customerID int) (string, error) {
	code, err := s.rdb.Get(ctx, deleteOTPKey(shopID, customerID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}

// ClearDeleteOTP removes a pending deletion code, whether consumed or aborted.
func (s *Store) ClearDeleteOTP(ctx context.Context, shopID string, customerID int) error {
	return s.rdb.Del(ctx, deleteOTPKey(shopID, customerID)).Err()
}
