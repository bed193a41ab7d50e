package partners

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/security"
)

type stubPartnerRepo struct {
	requests    map[uuid.UUID]*models.PartnerRequest
	restaurants []*models.Restaurant
	users       []*models.User
}

func newStubPartnerRepo() *stubPartnerRepo {
	return &stubPartnerRepo{requests: map[uuid.UUID]*models.PartnerRequest{}}
}

func (s *stubPartnerRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPartnerRepo) Create(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error) {
	request.ID = uuid.New()
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubPartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PartnerRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (s *stubPartnerRepo) ListByStatus(ctx context.Context, status enums.PartnerRequestStatus) ([]models.PartnerRequest, error) {
	var out []models.PartnerRequest
	for _, request := range s.requests {
		if request.Status == status {
			out = append(out, *request)
		}
	}
	return out, nil
}

func (s *stubPartnerRepo) Update(ctx context.Context, request *models.PartnerRequest) (*models.PartnerRequest, error) {
	s.requests[request.ID] = request
	return request, nil
}

func (s *stubPartnerRepo) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error) {
	restaurant.ID = uuid.New()
	s.restaurants = append(s.restaurants, restaurant)
	return restaurant, nil
}

func (s *stubPartnerRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New()
	s.users = append(s.users, user)
	return user, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func apply(t *testing.T, svc Service) *models.PartnerRequest {
	t.Helper()
	request, err := svc.Apply(context.Background(), ApplyInput{
		OwnerName:      "Mario Rossi",
		Email:          "Mario@Example.com ",
		RestaurantName: "Chez Mario",
		Phone:          "+243990111222",
		Description:    "Pizzas au feu de bois",
		Address:        "12 avenue des Palmiers",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	return request
}

func TestApplyFilesPendingRequest(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := newTestService(t, repo)
	request := apply(t, svc)

	if request.Status != enums.PartnerRequestPending {
		t.Fatalf("expected PENDING, got %s", request.Status)
	}
	if request.Email != "mario@example.com" {
		t.Fatalf("email not normalized: %q", request.Email)
	}

	pending, err := svc.ListPending(context.Background())
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending request, got %d", len(pending))
	}
}

func TestApproveProvisionsRestaurantAndOwner(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := newTestService(t, repo)
	request := apply(t, svc)

	result, err := svc.Approve(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if result.Request.Status != enums.PartnerRequestApproved {
		t.Fatalf("expected APPROVED, got %s", result.Request.Status)
	}
	if result.Restaurant.Slug != "chez-mario" {
		t.Fatalf("unexpected slug %q", result.Restaurant.Slug)
	}
	if !result.Restaurant.Active {
		t.Fatal("provisioned restaurant should be active")
	}
	if result.Request.RestaurantID == nil || *result.Request.RestaurantID != result.Restaurant.ID {
		t.Fatal("request not linked to provisioned restaurant")
	}

	if result.Owner.Role != enums.UserRoleRestaurantAdmin {
		t.Fatalf("unexpected owner role %s", result.Owner.Role)
	}
	if result.Owner.RestaurantID == nil || *result.Owner.RestaurantID != result.Restaurant.ID {
		t.Fatal("owner not bound to restaurant")
	}
	if result.TempPassword == "" {
		t.Fatal("temp password missing")
	}
	ok, err := security.VerifyPassword(result.TempPassword, result.Owner.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password does not verify against stored hash: ok=%v err=%v", ok, err)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := newTestService(t, repo)
	request := apply(t, svc)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, request.ID); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	_, err := svc.Approve(ctx, request.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRejectPendingRequest(t *testing.T) {
	t.Parallel()

	repo := newStubPartnerRepo()
	svc := newTestService(t, repo)
	request := apply(t, svc)

	rejected, err := svc.Reject(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != enums.PartnerRequestRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}
	if len(repo.restaurants) != 0 {
		t.Fatal("reject must not provision a restaurant")
	}
}

func TestApproveUnknownRequest(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubPartnerRepo())
	_, err := svc.Approve(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
