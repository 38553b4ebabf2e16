package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/collabhub-backend/internal/data/repos"
	types "github.com/yungbote/collabhub-backend/internal/domain"
	"github.com/yungbote/collabhub-backend/internal/pkg/ctxutil"
	"github.com/yungbote/collabhub-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/collabhub-backend/internal/pkg/errors"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

// MeView is the caller's own profile plus their open invitations.
type MeView struct {
	User        *types.User      `json:"user"`
	Invitations []InvitationView `json:"invitations"`
}

type UserService interface {
	GetMe(dbc dbctx.Context) (*MeView, error)
}

type userService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	membership MembershipService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, membership MembershipService) UserService {
	return &userService{
		db:         db,
		log:        log.With("service", "UserService"),
		userRepo:   userRepo,
		membership: membership,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*MeView, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("user not found")
	}
	invites, err := us.membership.PendingInvitations(dbc, rd.UserID)
	if err != nil {
		return nil, err
	}
	return &MeView{User: users[0], Invitations: invites}, nil
}
