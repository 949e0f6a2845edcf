package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mhd-br/void-studio/internal/canvas"
)

// ErrNotFound reports a project id with no stored row.
var ErrNotFound = errors.New("project not found")

// Project is the persisted form of a snapshot: identifying columns for
// listing, the full snapshot as JSON in Data, and unix-millisecond
// timestamps.
type Project struct {
	ID        string `gorm:"primaryKey;size:191"`
	Name      string `gorm:"size:255"`
	Data      []byte `gorm:"type:mediumblob"`
	CreatedAt int64  `gorm:"autoCreateTime:false"`
	UpdatedAt int64  `gorm:"autoUpdateTime:false"`
}

// ProjectInfo is the listing view of a project, without the snapshot body.
type ProjectInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ProjectStore saves and loads project snapshots. The sync core never calls
// this; it is the persistence collaborator wired beside the relay.
type ProjectStore interface {
	Save(ctx context.Context, snap canvas.Snapshot) error
	Load(ctx context.Context, id string) (canvas.Snapshot, error)
	List(ctx context.Context) ([]ProjectInfo, error)
	Delete(ctx context.Context, id string) error
}

type mysqlProjects struct {
	db *gorm.DB
}

// NewProjectStore returns the mysql-backed project store. The caller is
// responsible for running AutoMigrate (cmd/void-server does).
func NewProjectStore(db *gorm.DB) ProjectStore {
	return &mysqlProjects{db: db}
}

func (s *mysqlProjects) Save(ctx context.Context, snap canvas.Snapshot) error {
	if snap.ProjectID == "" {
		return errors.New("snapshot has no project id")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snap.ProjectID, err)
	}
	now := time.Now().UnixMilli()

	var existing Project
	err = s.db.WithContext(ctx).First(&existing, "id = ?", snap.ProjectID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := Project{
			ID:        snap.ProjectID,
			Name:      snap.ProjectName,
			Data:      data,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.db.WithContext(ctx).Create(&row).Error
	case err != nil:
		return err
	default:
		return s.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
			"name":       snap.ProjectName,
			"data":       data,
			"updated_at": now,
		}).Error
	}
}

func (s *mysqlProjects) Load(ctx context.Context, id string) (canvas.Snapshot, error) {
	var row Project
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return canvas.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return canvas.Snapshot{}, err
	}
	var snap canvas.Snapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		return canvas.Snapshot{}, fmt.Errorf("unmarshal project %s: %w", id, err)
	}
	return snap, nil
}

func (s *mysqlProjects) List(ctx context.Context) ([]ProjectInfo, error) {
	var rows []Project
	err := s.db.WithContext(ctx).
		Select("id", "name", "created_at", "updated_at").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	infos := make([]ProjectInfo, len(rows))
	for i, row := range rows {
		infos[i] = ProjectInfo{
			ID:        row.ID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return infos, nil
}

// Delete removes a project. Deleting an absent id is not an error.
func (s *mysqlProjects) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Project{}, "id = ?", id).Error
}
