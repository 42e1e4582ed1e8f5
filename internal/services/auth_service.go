package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// Register is customer self-signup: it creates the profile and the
// engagement lead in one transaction (source=self).
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || !strings.Contains(req.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, apperr.Validation("phone must be 7-15 digits")
	}

	var existing models.Profile
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	profile := models.Profile{
		ID:       uuid.New(),
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     models.RoleCustomer,
		Status:   models.UserActive,
		Password: string(hash),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		if req.Address == "" {
			return nil
		}
		lead := models.Lead{
			ID:                uuid.New(),
			CustomerName:      req.Name,
			Phone:             req.Phone,
			Email:             &profile.Email,
			Address:           req.Address,
			Source:            models.LeadSourceSelf,
			Status:            models.LeadStatusLead,
			CreatedBy:         profile.ID,
			CustomerAccountID: &profile.ID,
		}
		return tx.Create(&lead).Error
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return s.tokenPair(&profile, "")
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var profile models.Profile
	if err := s.db.Where("email = ?", req.Email).First(&profile).Error; err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if profile.Status == models.UserDisabled {
		return nil, apperr.Forbidden("account disabled")
	}

	return s.tokenPair(&profile, req.SupabaseToken)
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}

	s.db.Model(&stored).Update("revoked", true)

	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", stored.UserID).Error; err != nil {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}
	if profile.Status == models.UserDisabled {
		return nil, apperr.Forbidden("account disabled")
	}

	// The rotated access token cannot re-derive an embedded secondary
	// token; the cookie strategy covers those sessions.
	return s.tokenPair(&profile, "")
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	err := s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *AuthService) Profile(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Internal(err)
	}
	return &profile, nil
}

func (s *AuthService) tokenPair(profile *models.Profile, supabaseToken string) (*dto.AuthResponse, error) {
	accessToken, err := s.accessToken(profile, supabaseToken)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, err := s.refreshToken(profile)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:     profile.ID,
			Email:  profile.Email,
			Name:   profile.Name,
			Role:   profile.Role,
			Status: profile.Status,
		},
	}, nil
}

func (s *AuthService) accessToken(profile *models.Profile, supabaseToken string) (string, error) {
	claims := jwt.MapClaims{
		session.ClaimSub:    profile.ID.String(),
		session.ClaimEmail:  profile.Email,
		session.ClaimRole:   profile.Role,
		session.ClaimStatus: profile.Status,
		"iat":               time.Now().Unix(),
		"exp":               time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	if supabaseToken != "" {
		claims[session.ClaimSupabaseToken] = supabaseToken
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) refreshToken(profile *models.Profile) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    profile.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
