package store

import (
	"context"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/models"
)

// CreateProject binds a new project to a hub channel. The channel's
// uniqueness constraint turns a second bind attempt into apierr.ProjectAlreadyExistsError.
func (s *GORMStore) CreateProject(ctx context.Context, project *models.Project) (string, error) {
	id, err := createWithID(s.db, ctx, project, func(p *models.Project, id string) { p.ID = id }, project.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return "", &apierr.ProjectAlreadyExistsError{ChannelID: project.ChannelID}
		}
		return "", err
	}
	return id, nil
}

// GetProjectByChannel retrieves the project bound to a hub channel.
func (s *GORMStore) GetProjectByChannel(ctx context.Context, channelID string) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "channel_id", channelID, models.ErrProjectNotFound)
}

// GetProjectByID retrieves a project by its internal ID.
func (s *GORMStore) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "id", id, models.ErrProjectNotFound)
}
