package staff

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinisalud/citas-api/internal/auth"
)

var (
	ErrCredencialesInvalidas = errors.New("invalid credentials")
	ErrDNIDuplicado          = errors.New("dni already registered")
	ErrCamposRequeridos      = errors.New("dni, password and rol_id are required")
)

type Service struct {
	repo   Repository
	tokens *auth.Manager
}

func NewService(repo Repository, tokens *auth.Manager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

type CreateInput struct {
	DNI              string
	Password         string
	NombresCompletos *string
	Username         *string
	RolID            int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Usuario, error) {
	if in.DNI == "" || in.Password == "" || in.RolID == 0 {
		return nil, ErrCamposRequeridos
	}

	existing, err := s.repo.GetByDNI(ctx, in.DNI)
	if err != nil && !errors.Is(err, ErrUsuarioNotFound) {
		return nil, fmt.Errorf("find usuario by dni: %w", err)
	}
	if existing != nil {
		return nil, ErrDNIDuplicado
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &Usuario{
		DNI:              in.DNI,
		Username:         in.Username,
		PasswordHash:     string(hash),
		NombresCompletos: in.NombresCompletos,
		RolID:            in.RolID,
		Activo:           true,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type LoginResult struct {
	Usuario      *Usuario
	AccessToken  string
	RefreshToken string
}

// Login verifies credentials and issues the access/refresh token pair.
// Not-found and wrong-password collapse into the same error so the
// response does not leak which DNIs exist.
func (s *Service) Login(ctx context.Context, dni, password string) (*LoginResult, error) {
	if dni == "" || password == "" {
		return nil, ErrCredencialesInvalidas
	}

	u, err := s.repo.GetByDNI(ctx, dni)
	if err != nil {
		if errors.Is(err, ErrUsuarioNotFound) {
			return nil, ErrCredencialesInvalidas
		}
		return nil, fmt.Errorf("find usuario: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}

	identity := auth.Identity{UsuarioID: u.ID, DNI: u.DNI, RolID: u.RolID}
	access, err := s.tokens.CreateAccessToken(identity)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.CreateRefreshToken(identity)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Usuario: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	identity, err := s.tokens.Decode(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.CreateAccessToken(*identity)
}

func (s *Service) ListMedicos(ctx context.Context, areaID *int64) ([]Usuario, error) {
	return s.repo.ListMedicos(ctx, areaID)
}
