// file: internals/features/finance/payments/service/expiry_sweeper.go
package service

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	model "schoolku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Intent expiry sweeper
========================================================= */

// SweepExpiredIntents marks pending intents whose deadline passed as expired
// and reports how many it closed. Capture holds a row lock on the intent, so
// the sweep can never race a concurrent settlement into a wrong state.
func SweepExpiredIntents(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("payment_intent_status = ? AND payment_intent_expires_at < ?",
			model.PaymentIntentStatusPending, now).
		Updates(map[string]any{
			"payment_intent_status":     model.PaymentIntentStatusExpired,
			"payment_intent_updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// StartIntentExpirySweeper runs the sweep on a fixed interval until ctx is
// cancelled. Call once at bootstrap.
func StartIntentExpirySweeper(ctx context.Context, db *gorm.DB, interval time.Duration) {
	go func() {
		log.Printf("[SWEEPER] intent expiry sweeper started (interval: %v)", interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[SWEEPER] intent expiry sweeper stopped")
				return
			case <-ticker.C:
				n, err := SweepExpiredIntents(ctx, db, time.Now())
				if err != nil {
					log.Printf("[SWEEPER] sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[SWEEPER] expired %d payment intent(s)", n)
				}
			}
		}
	}()
}
