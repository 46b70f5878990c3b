package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/storage"
	"github.com/gosimple/slug"
)

const archivePrefix = "brackets/"

// SnapshotArchiver uploads the final snapshot of a completed tournament.
type SnapshotArchiver struct {
	uploader storage.FileUploader
}

func NewSnapshotArchiver(uploader storage.FileUploader) *SnapshotArchiver {
	return &SnapshotArchiver{uploader: uploader}
}

func ArchiveKey(snap *models.Snapshot) string {
	name := slug.Make(snap.Name)
	if name == "" {
		name = "tournament"
	}
	return fmt.Sprintf("%s%s-%s.json", archivePrefix, name, snap.TournamentID)
}

// Archive stores snap and returns its public location.
func (a *SnapshotArchiver) Archive(ctx context.Context, snap *models.Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot %s: %w", snap.TournamentID, err)
	}
	res, err := a.uploader.Upload(ctx, ArchiveKey(snap), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}
