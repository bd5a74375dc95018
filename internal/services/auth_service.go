package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"conmart/internal/auth"
	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

type AuthService struct {
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo

	JWTSecret string
	JWTTTL    time.Duration
}

func NewAuthService(users *repos.UserRepo, owners *repos.OwnerRepo, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Owners: owners, JWTSecret: secret, JWTTTL: ttl}
}

// RegisterInput carries both buyer and supplier signups; the business fields
// are only read when role is product_owner.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	Phone    string
	Language string

	BusinessName  string
	BusinessDesc  string
	BusinessAddr  string
	BusinessCity  string
	BusinessPhone string
	BusinessEmail string
}

func (s *AuthService) Register(in RegisterInput) (*domain.User, string, error) {
	if _, err := s.Users.ByEmail(in.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 12)
	if err != nil {
		return nil, "", err
	}

	tier := domain.TierFree
	if in.Role == domain.RoleProductOwner {
		tier = domain.TierBasic
	}
	if in.Language == "" {
		in.Language = "en"
	}

	u := &domain.User{
		ID:       uuid.NewString(),
		Email:    in.Email,
		Name:     in.Name,
		Hash:     string(hash),
		Role:     in.Role,
		Tier:     tier,
		Phone:    in.Phone,
		Language: in.Language,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, "", err
	}

	if in.Role == domain.RoleProductOwner {
		owner := &domain.ProductOwner{
			ID:            uuid.NewString(),
			UserID:        u.ID,
			BusinessName:  in.BusinessName,
			BusinessDesc:  in.BusinessDesc,
			BusinessAddr:  in.BusinessAddr,
			BusinessCity:  in.BusinessCity,
			BusinessPhone: in.BusinessPhone,
			BusinessEmail: in.BusinessEmail,
			Tier:          domain.TierBasic,
			ProductsLimit: entitlement.ProductLimit(domain.TierBasic),
		}
		if err := s.Owners.Create(owner); err != nil {
			return nil, "", err
		}
	}

	token, err := auth.GenerateToken(s.JWTSecret, u.ID, u.Role, s.JWTTTL)
	if err != nil {
		return nil, "", err
	}
	fresh, err := s.Users.ByID(u.ID)
	if err != nil {
		return nil, "", err
	}
	return fresh, token, nil
}

func (s *AuthService) Login(email, password string) (*domain.User, string, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		// Burn a comparison so missing accounts cost the same as bad passwords.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$12$C6UzMDM.H6dfI/f/IKcEeO5pTtLYlABRmCE9rT6P0r.F8jquRBkS6"), []byte(password))
		return nil, "", ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	if !u.IsActive {
		return nil, "", ErrAccountBlocked
	}
	token, err := auth.GenerateToken(s.JWTSecret, u.ID, u.Role, s.JWTTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout blacklists the token's JTI until the token would have expired
// anyway.
func (s *AuthService) Logout(claims *auth.Claims) error {
	exp := time.Now().Add(s.JWTTTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.Users.RevokeToken(claims.ID, exp)
}

func (s *AuthService) CurrentUser(id string) (*domain.User, error) {
	u, err := s.Users.ByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *AuthService) UpdateProfile(id, name, phone, language string) (*domain.User, error) {
	if err := s.Users.UpdateProfile(id, name, phone, language); err != nil {
		return nil, err
	}
	return s.Users.ByID(id)
}

func (s *AuthService) ChangePassword(id, current, next string) error {
	u, err := s.Users.ByID(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(current)) != nil {
		return ErrBadCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), 12)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(id, string(hash))
}
