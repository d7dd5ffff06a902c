package billing

import (
	"context"

	"github.com/fieldservice/backend/internal/domain/audit"
	"github.com/fieldservice/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// financeNotifier fans a message out to the tenant's active admin and
// accounting users. Failures are logged and swallowed.
type financeNotifier struct {
	users    identity.UserRepository
	notifier audit.Notifier
	logger   *zap.Logger
}

func (n *financeNotifier) notify(ctx context.Context, tenantID uuid.UUID, msg audit.Message) {
	if n.users == nil || n.notifier == nil {
		return
	}

	userIDs, err := n.users.FindActiveUserIDsByRoles(ctx, tenantID, identity.FinanceRoles)
	if err != nil {
		n.logger.Warn("Failed to load notification recipients",
			zap.String("tenant_id", tenantID.String()),
			zap.String("title", msg.Title),
			zap.Error(err))
		return
	}
	if len(userIDs) == 0 {
		return
	}

	if err := n.notifier.Notify(ctx, tenantID, userIDs, msg); err != nil {
		n.logger.Warn("Failed to deliver notification",
			zap.String("tenant_id", tenantID.String()),
			zap.String("title", msg.Title),
			zap.Int("recipients", len(userIDs)),
			zap.Error(err))
	}
}
