package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
)

// VerificationResult is what the cart records verbatim: the decision, the
// discount amount, and a user-facing message.
type VerificationResult struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Message        string          `json:"message"`
}

// Service exposes promo verification, redemption, and owner management.
type Service interface {
	Verify(ctx context.Context, restaurantID uuid.UUID, code string, subtotal decimal.Decimal) (VerificationResult, error)
	Redeem(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, code string) error
	Create(ctx context.Context, restaurantID uuid.UUID, input CreateInput) (*models.PromoCode, error)
	List(ctx context.Context, restaurantID uuid.UUID) ([]models.PromoCode, error)
	Delete(ctx context.Context, restaurantID, promoID uuid.UUID) error
}

// CreateInput holds the validated payload to create a promo code.
type CreateInput struct {
	Code        string
	Kind        enums.PromoKind
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	UsageLimit  int
	ExpiresAt   *time.Time
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a promo service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// NormalizeCode uppercases and trims a promo code so lookups are
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Verify decides whether the code applies to the given subtotal. An unknown
// or unusable code yields Valid=false with a message, not an error; only
// infrastructure failures surface as errors.
func (s *service) Verify(ctx context.Context, restaurantID uuid.UUID, code string, subtotal decimal.Decimal) (VerificationResult, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return invalid("Code promo invalide"), nil
	}

	promo, err := s.repo.FindByCode(ctx, restaurantID, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("Code promo invalide"), nil
		}
		return VerificationResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up promo code")
	}

	switch {
	case !promo.Active:
		return invalid("Code promo invalide"), nil
	case promo.ExpiresAt != nil && s.now().After(*promo.ExpiresAt):
		return invalid("Code promo expiré"), nil
	case promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit:
		return invalid("Code promo épuisé"), nil
	case subtotal.LessThan(promo.MinSubtotal):
		return invalid(fmt.Sprintf("Minimum de commande : %s €", promo.MinSubtotal.StringFixed(2))), nil
	}

	amount := discountAmount(promo, subtotal)
	return VerificationResult{
		Valid:          true,
		DiscountAmount: amount,
		Message:        fmt.Sprintf("Code promo appliqué : -%s €", amount.StringFixed(2)),
	}, nil
}

// Redeem burns one use of the code at order submission. A non-nil tx binds
// the usage increment to the caller's transaction so a failed order commit
// rolls it back.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, code string) error {
	repo := s.repo.WithTx(tx)

	promo, err := repo.FindByCode(ctx, restaurantID, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up promo code")
	}

	ok, err := repo.IncrementUsage(ctx, promo.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming promo code")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "promo code usage limit reached")
	}
	return nil
}

func (s *service) Create(ctx context.Context, restaurantID uuid.UUID, input CreateInput) (*models.PromoCode, error) {
	normalized := NormalizeCode(input.Code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid promo kind %q", input.Kind))
	}
	if !input.Value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo value must be positive")
	}
	if input.Kind == enums.PromoKindPercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if input.MinSubtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum subtotal cannot be negative")
	}
	if input.UsageLimit < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit cannot be negative")
	}

	promo := &models.PromoCode{
		RestaurantID: restaurantID,
		Code:         normalized,
		Kind:         input.Kind,
		Value:        input.Value,
		MinSubtotal:  input.MinSubtotal,
		UsageLimit:   input.UsageLimit,
		ExpiresAt:    input.ExpiresAt,
		Active:       true,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("code %q already exists", normalized))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating promo code")
	}
	return created, nil
}

func (s *service) List(ctx context.Context, restaurantID uuid.UUID) ([]models.PromoCode, error) {
	promos, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing promo codes")
	}
	return promos, nil
}

func (s *service) Delete(ctx context.Context, restaurantID, promoID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, restaurantID, promoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up promo code")
	}
	if err := s.repo.Delete(ctx, promoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting promo code")
	}
	return nil
}

func discountAmount(promo *models.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch promo.Kind {
	case enums.PromoKindPercentage:
		amount = subtotal.Mul(promo.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		amount = promo.Value
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

func invalid(message string) VerificationResult {
	return VerificationResult{Valid: false, DiscountAmount: decimal.Zero, Message: message}
}
