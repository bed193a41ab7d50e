package partners

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/internal/users"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/security"
)

const tempPasswordLength = 12

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the partner application flow.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.PartnerRequest, error)
	ListPending(ctx context.Context) ([]models.PartnerRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*ApprovalResult, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.PartnerRequest, error)
}

// ApplyInput holds the validated payload of a public partner application.
type ApplyInput struct {
	OwnerName      string
	Email          string
	RestaurantName string
	Phone          string
	Description    string
	Address        string
}

// ApprovalResult carries everything provisioned for an approved partner.
// The temporary password is returned once, for out-of-band delivery to the
// owner, and never stored in clear.
type ApprovalResult struct {
	Request      *models.PartnerRequest
	Restaurant   *models.Restaurant
	Owner        *models.User
	TempPassword string
}

type service struct {
	repo        Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds the partner service.
func NewService(repo Repository, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partner repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, passwordCfg: passwordCfg}, nil
}

// Apply files a new application in PENDING state.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.PartnerRequest, error) {
	request := &models.PartnerRequest{
		OwnerName:      strings.TrimSpace(input.OwnerName),
		Email:          users.NormalizeEmail(input.Email),
		RestaurantName: strings.TrimSpace(input.RestaurantName),
		Phone:          strings.TrimSpace(input.Phone),
		Description:    strings.TrimSpace(input.Description),
		Address:        strings.TrimSpace(input.Address),
		Status:         enums.PartnerRequestPending,
	}
	created, err := s.repo.Create(ctx, request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "filing partner application")
	}
	return created, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.PartnerRequest, error) {
	requests, err := s.repo.ListByStatus(ctx, enums.PartnerRequestPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing partner applications")
	}
	return requests, nil
}

// Approve transitions a pending application to APPROVED and provisions, in
// one transaction, the restaurant and its owner account with a temporary
// password.
func (s *service) Approve(ctx context.Context, id uuid.UUID) (*ApprovalResult, error) {
	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating temp password")
	}
	passwordHash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing temp password")
	}

	var result ApprovalResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := loadPending(ctx, repo, id)
		if err != nil {
			return err
		}

		slug := restaurants.Slugify(request.RestaurantName)
		if slug == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "restaurant name yields an empty slug")
		}

		restaurant, err := repo.CreateRestaurant(ctx, &models.Restaurant{
			Slug:          slug,
			Name:          request.RestaurantName,
			OwnerName:     request.OwnerName,
			WhatsappPhone: request.Phone,
			Active:        true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("slug %q already in use", slug))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provisioning restaurant")
		}

		owner, err := repo.CreateUser(ctx, &models.User{
			Email:        request.Email,
			PasswordHash: passwordHash,
			Role:         enums.UserRoleRestaurantAdmin,
			RestaurantID: &restaurant.ID,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provisioning owner account")
		}

		request.Status = enums.PartnerRequestApproved
		request.RestaurantID = &restaurant.ID
		if _, err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating application")
		}

		result = ApprovalResult{
			Request:      request,
			Restaurant:   restaurant,
			Owner:        owner,
			TempPassword: tempPassword,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reject transitions a pending application to REJECTED.
func (s *service) Reject(ctx context.Context, id uuid.UUID) (*models.PartnerRequest, error) {
	var rejected *models.PartnerRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := loadPending(ctx, repo, id)
		if err != nil {
			return err
		}
		request.Status = enums.PartnerRequestRejected
		if _, err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating application")
		}
		rejected = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func loadPending(ctx context.Context, repo Repository, id uuid.UUID) (*models.PartnerRequest, error) {
	request, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}
	if request.Status != enums.PartnerRequestPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("application already %s", strings.ToLower(string(request.Status))))
	}
	return request, nil
}
