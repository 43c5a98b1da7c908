package service

import (
	"context"
	"fmt"

	"github.com/reward-scanner/internal/config"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/storage"
	"github.com/reward-scanner/internal/types"
)

// Artifact selects which full-record tabular file to write
type Artifact int

const (
	// ArtifactRawActivity is the reward activity as fetched; it is also the fetch cache
	ArtifactRawActivity Artifact = iota
	// ArtifactDollarPerBlock is the price-enriched activity; it is also the price cache
	ArtifactDollarPerBlock
)

// String returns the artifact name
func (a Artifact) String() string {
	switch a {
	case ArtifactRawActivity:
		return "raw_activity"
	case ArtifactDollarPerBlock:
		return "dollar_per_block"
	default:
		return "unknown"
	}
}

// ExportService writes the pipeline's tabular artifacts
type ExportService struct {
	files config.FilesConfig
}

// NewExportService creates an export service for the configured file locations
func NewExportService(files config.FilesConfig) *ExportService {
	return &ExportService{files: files}
}

// Path returns the file backing an artifact
func (s *ExportService) Path(artifact Artifact) (string, error) {
	switch artifact {
	case ArtifactRawActivity:
		return s.files.RawActivityPath(), nil
	case ArtifactDollarPerBlock:
		return s.files.DollarPerBlockPath(), nil
	default:
		return "", fmt.Errorf("unknown artifact %d", int(artifact))
	}
}

// Export writes every record with all of its columns
func (s *ExportService) Export(ctx context.Context, artifact Artifact, records []*types.RewardBlockRecord) error {
	path, err := s.Path(artifact)
	if err != nil {
		return err
	}

	if err := storage.WriteActivityFile(path, records); err != nil {
		return fmt.Errorf("export %s: %w", artifact, err)
	}

	logging.FromContext(ctx).WithField("artifact", artifact.String()).Infof("Wrote %d blocks to %s", len(records), path)
	return nil
}

// ExportRewardsOnly writes the slim rewards view with prices in display units
func (s *ExportService) ExportRewardsOnly(ctx context.Context, records []*types.RewardBlockRecord) error {
	path := s.files.RewardsOnlyPath()
	if err := storage.WriteRewardsOnlyFile(path, records); err != nil {
		return fmt.Errorf("export rewards only: %w", err)
	}

	logging.FromContext(ctx).WithField("artifact", "rewards_only").Infof("Wrote %d blocks to %s", len(records), path)
	return nil
}
