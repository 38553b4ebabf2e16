package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/collab/guard"
	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
	"github.com/yungbote/collabhub-backend/internal/realtime"
)

type ProjectView struct {
	*types.Project
	Members []MemberView `json:"members"`
}

// ProjectPatch carries optional field updates; nil means unchanged.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*types.Project, error)
	Get(dbc dbctx.Context, projectID, userID uuid.UUID) (*ProjectView, error)
	ListMine(dbc dbctx.Context, userID uuid.UUID) ([]*types.Project, error)
	Update(ctx context.Context, projectID, userID uuid.UUID, patch ProjectPatch) (*types.Project, error)
	Delete(ctx context.Context, projectID, userID uuid.UUID) error
}

type projectService struct {
	db         *gorm.DB
	log        *logger.Logger
	projects   repos.ProjectRepo
	membership MembershipService
	post       *PostCommit
}

func NewProjectService(db *gorm.DB, log *logger.Logger, projects repos.ProjectRepo, membership MembershipService, post *PostCommit) ProjectService {
	return &projectService{
		db:         db,
		log:        log.With("service", "ProjectService"),
		projects:   projects,
		membership: membership,
		post:       post,
	}
}

func (s *projectService) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*types.Project, error) {
	if ownerID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgument("project name is required")
	}
	p := &types.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.projects.Create(dbc, p); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		if _, err := s.membership.Create(dbc, p.ID, ownerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Project created", "project_id", p.ID, "user_id", ownerID)

	s.post.Run(ctx, Effects{
		ProjectID: p.ID,
		ActorID:   ownerID,
		Activity: &types.ActivityEntry{
			ProjectID:  p.ID,
			ActorID:    ownerID,
			Action:     types.ActionCreatedProject,
			Details:    p.Name,
			EntityType: types.EntityProject,
			EntityID:   entityRef(p.ID),
		},
		Event: realtime.ProjectCreated{Project: p},
	})
	return p, nil
}

func (s *projectService) Get(dbc dbctx.Context, projectID, userID uuid.UUID) (*ProjectView, error) {
	p, _, err := s.membership.Authorize(dbc, projectID, userID, guard.ReadProject)
	if err != nil {
		return nil, err
	}
	members, err := s.membership.Members(dbc, projectID, userID)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: p, Members: members}, nil
}

func (s *projectService) ListMine(dbc dbctx.Context, userID uuid.UUID) ([]*types.Project, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	out, err := s.projects.ListForMember(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *projectService) Update(ctx context.Context, projectID, userID uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	dbc := dbctx.New(ctx)
	p, _, err := s.membership.Authorize(dbc, projectID, userID, guard.UpdateProject)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.InvalidArgument("project name cannot be empty")
		}
		updates["name"] = name
		p.Name = name
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		updates["description"] = desc
		p.Description = desc
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.projects.UpdateFields(dbc, projectID, updates); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if fresh, err := s.projects.GetByID(dbc, projectID); err == nil && fresh != nil {
		p = fresh
	}

	s.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    userID,
			Action:     types.ActionUpdatedProject,
			Details:    p.Name,
			EntityType: types.EntityProject,
			EntityID:   entityRef(projectID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationProject,
			Message:       StaticMessage("Project updated: " + p.Name),
			Link:          &NotificationLink{EntityType: types.EntityProject, EntityID: projectID, ProjectID: projectID},
		},
		Event: realtime.ProjectUpdated{Project: p},
	})
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	p, _, err := s.membership.Authorize(dbc, projectID, userID, guard.DeleteProject)
	if err != nil {
		return err
	}
	if err := s.projects.SoftDelete(dbc, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.log.Info("Project deleted", "project_id", projectID, "user_id", userID)

	s.post.Run(ctx, Effects{
		ProjectID: projectID,
		ActorID:   userID,
		Activity: &types.ActivityEntry{
			ProjectID:  projectID,
			ActorID:    userID,
			Action:     types.ActionDeletedProject,
			Details:    p.Name,
			EntityType: types.EntityProject,
			EntityID:   entityRef(projectID),
		},
		Fanout: &FanoutSpec{
			ExcludeUserID: userID,
			Type:          types.NotificationProject,
			Message:       StaticMessage("Project deleted: " + p.Name),
			Link:          &NotificationLink{EntityType: types.EntityProject, EntityID: projectID, ProjectID: projectID},
		},
		Event: realtime.ProjectDeleted{ProjectID: projectID},
	})
	return nil
}
