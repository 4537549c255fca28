package uploader

import (
	"context"
	"fmt"

	"shothook/internal/host"
	"shothook/internal/logging"
)

// upload publishes path as a new version of an image asset named after file.
// The asset lives on the task when the host allows it, otherwise on the
// task's parent.
func (a *Action) upload(ctx context.Context, s Session, file, path string) error {
	logger := logging.WithContext(ctx, a.logger)

	asset, err := a.client.EnsureAsset(ctx, s.TaskID, file, host.AssetTypeImage)
	if err != nil {
		if s.ParentID == "" {
			return fmt.Errorf("ensure asset on task %s: %w", s.TaskID, err)
		}
		logger.Info("asset not allowed on task, using parent",
			logging.String("task_id", s.TaskID),
			logging.String("parent_id", s.ParentID),
			logging.Error(err),
		)
		asset, err = a.client.EnsureAsset(ctx, s.ParentID, file, host.AssetTypeImage)
		if err != nil {
			return fmt.Errorf("ensure asset on parent %s: %w", s.ParentID, err)
		}
	}

	version, err := a.client.CreateAssetVersion(ctx, asset.ID, s.TaskID)
	if err != nil {
		return fmt.Errorf("create version of %s: %w", asset.Name, err)
	}
	if err := a.client.MakeReviewable(ctx, version.ID, path); err != nil {
		return fmt.Errorf("make reviewable: %w", err)
	}
	if _, err := a.client.CreateComponent(ctx, version.ID, host.ServerLinkComponent, path); err != nil {
		return fmt.Errorf("create server link: %w", err)
	}
	if err := a.client.PublishVersion(ctx, version.ID); err != nil {
		return fmt.Errorf("publish version %s: %w", version.ID, err)
	}
	logger.Info("upload published",
		logging.String("asset", asset.Name),
		logging.String("version_id", version.ID),
		logging.Int("version", version.Version),
	)
	return nil
}
