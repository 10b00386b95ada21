package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/orgs"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
	"github.com/hoyacom/apiman/pkg/utils"
)

// OrganizationService manages the portal-side organizations.
type OrganizationService struct {
	orgRepo ports.OrganizationRepository
	logger  *zap.Logger
}

// NewOrganizationService creates a new organization service.
func NewOrganizationService(orgRepo ports.OrganizationRepository, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
		logger:  logger,
	}
}

// CreateHomeOrg creates the developer's home organization. The organization
// name must be the developer's own username; asking for any other name is
// rejected, so each developer gets exactly one namespace they own.
func (s *OrganizationService) CreateHomeOrg(ctx context.Context, username string, req orgs.NewOrganization) (*orgs.Organization, error) {
	if username == "" {
		return nil, apperrors.NewUnauthorizedError("must be logged in to create an organization")
	}
	if req.Name != "" && req.Name != username {
		return nil, apperrors.NewUnauthorizedError("home organization name must match your username")
	}

	req.Name = username
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	existing, err := s.orgRepo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get organization", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("organization already exists")
	}

	org := orgs.Organization{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   username,
		CreatedAt:   time.Now(),
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, apperrors.NewDatabaseError("create organization", err)
	}

	s.logger.Info("Home organization created",
		zap.String("name", org.Name),
		zap.String("createdBy", username),
	)

	return &org, nil
}
