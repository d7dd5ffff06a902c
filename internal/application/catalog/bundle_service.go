package catalog

import (
	"context"
	"fmt"

	"github.com/fieldservice/backend/internal/application/validation"
	"github.com/fieldservice/backend/internal/domain/billing"
	"github.com/fieldservice/backend/internal/domain/catalog"
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/fieldservice/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBundleNotFound   = shared.NewNotFoundError("BUNDLE_NOT_FOUND", "Bundle not found")
	ErrItemNotFound     = shared.NewNotFoundError("ITEM_NOT_FOUND", "Item not found")
	ErrEstimateNotFound = shared.NewNotFoundError("ESTIMATE_NOT_FOUND", "Estimate not found")
)

// BundleService authors bundles, derives their rollups and expands them
// onto estimates
type BundleService struct {
	txScope TransactionScope
	items   catalog.ItemReader
	bundles catalog.BundleReader
	logger  *zap.Logger
}

// BundleServiceConfig holds the dependencies of BundleService
type BundleServiceConfig struct {
	TxScope TransactionScope
	Items   catalog.ItemReader
	Bundles catalog.BundleReader
	Logger  *zap.Logger
}

// NewBundleService creates a new BundleService
func NewBundleService(cfg BundleServiceConfig) *BundleService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BundleService{
		txScope: cfg.TxScope,
		items:   cfg.Items,
		bundles: cfg.Bundles,
		logger:  logger,
	}
}

// Flatten expands a bundle for preview. An unknown bundle id is reported as
// not found here even though the flattener itself treats it as empty.
func (s *BundleService) Flatten(ctx context.Context, tenantID, bundleID uuid.UUID) (*FlattenResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "flatten")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBundleID, bundleID.String(),
	)

	if _, err := s.bundles.FindBundle(ctx, tenantID, bundleID); err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrBundleNotFound
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	components, err := catalog.NewFlattener(s.bundles, s.items).Flatten(ctx, tenantID, bundleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrComponents, len(components))

	return &FlattenResult{
		BundleID:   bundleID,
		Components: components,
		Rollup:     catalog.ComputeRollup(components),
	}, nil
}

// CreateBundle creates a BUNDLE item and its definition, then stores the
// flattened rollup as the item's default price and cost. Every referenced
// item and bundle must exist for the tenant.
func (s *BundleService) CreateBundle(ctx context.Context, actor shared.Actor, cmd CreateBundleCommand) (*BundleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, actor.TenantID.String())

	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	var result *BundleResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := checkReferences(ctx, repos, actor.TenantID, cmd.Components); err != nil {
			return err
		}

		item, err := catalog.NewItem(actor.TenantID, cmd.Name, catalog.ItemKindBundle, valueobject.Zero(), nil)
		if err != nil {
			return err
		}
		item.Description = cmd.Description
		if cmd.Unit != "" {
			item.Unit = cmd.Unit
		}

		inputs := make([]catalog.ComponentInput, 0, len(cmd.Components))
		for _, c := range cmd.Components {
			inputs = append(inputs, c.input())
		}
		def, err := catalog.NewBundleDefinition(item, inputs)
		if err != nil {
			return err
		}

		if err := repos.ItemRepo().SaveItem(ctx, item); err != nil {
			return fmt.Errorf("save bundle item: %w", err)
		}
		if err := repos.BundleRepo().SaveBundle(ctx, def); err != nil {
			return fmt.Errorf("save bundle definition: %w", err)
		}

		rollup, err := applyRollup(ctx, repos, actor.TenantID, def, item)
		if err != nil {
			return err
		}

		result = &BundleResult{Item: item, Definition: def, Rollup: rollup}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBundleID, result.Definition.ID.String())
	s.logger.Info("Bundle created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("bundle_id", result.Definition.ID.String()),
		zap.String("item_id", result.Item.ID.String()),
		zap.Int("components", len(result.Definition.Components)),
		zap.String("unit_price", result.Rollup.UnitPrice.String()))
	return result, nil
}

// RecalculateRollup re-derives a bundle item's default price and cost from
// its current components
func (s *BundleService) RecalculateRollup(ctx context.Context, tenantID, bundleID uuid.UUID) (*catalog.Rollup, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "recalculate_rollup")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBundleID, bundleID.String(),
	)

	var rollup catalog.Rollup
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		def, err := repos.BundleRepo().FindBundle(ctx, tenantID, bundleID)
		if err != nil {
			if shared.IsNotFound(err) {
				return ErrBundleNotFound
			}
			return err
		}
		item, err := repos.ItemRepo().FindItemByID(ctx, tenantID, def.ItemID)
		if err != nil {
			if shared.IsNotFound(err) {
				return ErrItemNotFound
			}
			return err
		}
		rollup, err = applyRollup(ctx, repos, tenantID, def, item)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &rollup, nil
}

// ApplyBundleToEstimate appends the bundle's flattened components to the
// estimate as one line group and recalculates the estimate's totals. The
// group, lines and totals commit together.
func (s *BundleService) ApplyBundleToEstimate(ctx context.Context, actor shared.Actor, cmd ApplyBundleCommand) (*AppliedBundle, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bundle", "apply_to_estimate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrEstimateID, cmd.EstimateID.String(),
		telemetry.SpanAttrBundleID, cmd.BundleID.String(),
	)

	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	var result *AppliedBundle
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		est, err := repos.EstimateRepo().FindEstimateForUpdate(ctx, actor.TenantID, cmd.EstimateID)
		if err != nil {
			if shared.IsNotFound(err) {
				return ErrEstimateNotFound
			}
			return err
		}

		def, err := repos.BundleRepo().FindBundle(ctx, actor.TenantID, cmd.BundleID)
		if err != nil {
			if shared.IsNotFound(err) {
				return ErrBundleNotFound
			}
			return err
		}

		components, err := catalog.NewFlattener(repos.BundleRepo(), repos.ItemRepo()).Flatten(ctx, actor.TenantID, def.ID)
		if err != nil {
			return err
		}

		group := billing.NewBundleLineGroup(actor.TenantID, billing.DocumentTypeEstimate, est.ID, def)
		if err := repos.EstimateRepo().SaveLineGroup(ctx, group); err != nil {
			return fmt.Errorf("save line group: %w", err)
		}

		lines := make([]billing.LineItem, 0, len(components))
		for _, c := range components {
			lines = append(lines, billing.LineItemFromComponent(c, group.ID, 0))
		}
		if err := est.AppendLineItems(lines...); err != nil {
			return err
		}
		if err := repos.EstimateRepo().SaveEstimate(ctx, est); err != nil {
			return fmt.Errorf("save estimate: %w", err)
		}

		result = &AppliedBundle{Group: group, LineItems: lines, Estimate: est}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Bundle applied to estimate",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("estimate_id", cmd.EstimateID.String()),
		zap.String("bundle_id", cmd.BundleID.String()),
		zap.Int("lines", len(result.LineItems)),
		zap.String("total", result.Estimate.Total.String()))
	return result, nil
}

func checkReferences(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, components []ComponentCommand) error {
	for _, c := range components {
		switch {
		case c.ItemID != nil:
			if _, err := repos.ItemRepo().FindItemByID(ctx, tenantID, *c.ItemID); err != nil {
				if shared.IsNotFound(err) {
					return ErrItemNotFound
				}
				return err
			}
		case c.BundleID != nil:
			if _, err := repos.BundleRepo().FindBundle(ctx, tenantID, *c.BundleID); err != nil {
				if shared.IsNotFound(err) {
					return ErrBundleNotFound
				}
				return err
			}
		}
	}
	return nil
}

func applyRollup(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, def *catalog.BundleDefinition, item *catalog.Item) (catalog.Rollup, error) {
	components, err := catalog.NewFlattener(repos.BundleRepo(), repos.ItemRepo()).Flatten(ctx, tenantID, def.ID)
	if err != nil {
		return catalog.Rollup{}, err
	}
	rollup := catalog.ComputeRollup(components)
	if err := item.ApplyRollup(rollup); err != nil {
		return catalog.Rollup{}, err
	}
	if err := repos.ItemRepo().SaveItem(ctx, item); err != nil {
		return catalog.Rollup{}, fmt.Errorf("save bundle rollup: %w", err)
	}
	return rollup, nil
}
