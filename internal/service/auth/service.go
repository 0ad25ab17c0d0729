package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourchat-backend/internal/database"
	internaljwt "tourchat-backend/internal/jwt"
	"tourchat-backend/internal/model"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

var (
	createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
	refreshAccessToken     = internaljwt.RefreshToken
)

// SetTokenIssuer swaps the token issuer, used by tests to avoid a live
// Redis. Passing nil restores the default.
func SetTokenIssuer(issuer func(internaljwt.User, internaljwt.Role, int64) (internaljwt.TokenResponse, error)) {
	if issuer == nil {
		createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
		return
	}
	createTokenWithRefresh = issuer
}

func SetTokenRefresher(refresher func(string, internaljwt.Role) (string, error)) {
	if refresher == nil {
		refreshAccessToken = internaljwt.RefreshToken
		return
	}
	refreshAccessToken = refresher
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

// Register creates a customer account. Staff accounts are provisioned
// out of band.
func (s *Service) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)
	name := strings.TrimSpace(params.Name)

	if email == "" || password == "" || name == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "missing required fields", nil)
	}

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return AuthResult{}, newError(ErrorCodeConflict, "email already registered", nil)
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to check existing user", err)
	}

	passwordHash, err := internaljwt.HashPassword(password)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to hash password", err)
	}

	user := model.UserItem{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to create user", err)
	}

	tokens, err := createTokenWithRefresh(internaljwt.User{
		Id:    user.UserID,
		Email: user.Email,
		Name:  user.Name,
	}, roleFor(user), 0)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}

	return AuthResult{User: user, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)

	if email == "" || password == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "missing required fields", nil)
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, newError(ErrorCodeUnauthorized, "invalid credentials", nil)
		}
		return AuthResult{}, newError(ErrorCodeInternal, "failed to fetch user", err)
	}

	if user.Status != model.StatusActive {
		return AuthResult{}, newError(ErrorCodeUnauthorized, "invalid credentials", nil)
	}
	if !internaljwt.ValidatePassword(user.PasswordHash, password) {
		return AuthResult{}, newError(ErrorCodeUnauthorized, "invalid credentials", nil)
	}

	tokens, err := createTokenWithRefresh(internaljwt.User{
		Id:    user.UserID,
		Email: user.Email,
		Name:  user.Name,
	}, roleFor(user), 0)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}

	return AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a fresh access token. The role
// suffix on the token selects the verification path.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (internaljwt.TokenResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	role, err := roleFromTokenSuffix(refreshToken)
	if err != nil {
		return internaljwt.TokenResponse{}, newError(ErrorCodeUnauthorized, "invalid refresh token", err)
	}

	accessToken, err := refreshAccessToken(refreshToken, role)
	if err != nil {
		return internaljwt.TokenResponse{}, newError(ErrorCodeUnauthorized, "invalid refresh token", err)
	}

	return internaljwt.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) Profile(ctx context.Context, identity Identity) (model.UserItem, error) {
	user, err := s.repo.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.UserItem{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return model.UserItem{}, newError(ErrorCodeInternal, "failed to fetch user", err)
	}
	return user, nil
}

func (s *Service) IdentityFromAuthorizationHeader(header string, role internaljwt.Role) (Identity, error) {
	authHeader := strings.TrimSpace(header)
	if authHeader == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "missing authorization header", nil)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid authorization header format", nil)
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return identityFromToken(token, role)
}

// IdentityFromAccessToken resolves either a customer or a staff token.
// Websocket upgrades use it because both sides connect to the same
// endpoint.
func IdentityFromAccessToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	role, err := roleFromTokenSuffix(token)
	if err != nil {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid token", err)
	}
	return identityFromToken(token, role)
}

func identityFromToken(token string, role internaljwt.Role) (Identity, error) {
	if token == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "empty token", nil)
	}

	claims, err := internaljwt.ParseToken(token, role)
	if err != nil {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid token", err)
	}

	userID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	if userID == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "token missing identifiers", nil)
	}

	modelRole := model.RoleCustomer
	if role == internaljwt.RoleStaff {
		modelRole = model.RoleStaff
	}

	return Identity{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   modelRole,
	}, nil
}

func roleFor(user model.UserItem) internaljwt.Role {
	if user.Role == model.RoleStaff {
		return internaljwt.RoleStaff
	}
	return internaljwt.RoleUser
}

func roleFromTokenSuffix(token string) (internaljwt.Role, error) {
	if token == "" {
		return 0, errors.New("empty token")
	}
	switch token[len(token)-1:] {
	case "1":
		return internaljwt.RoleUser, nil
	case "2":
		return internaljwt.RoleStaff, nil
	}
	return 0, errors.New("unknown role suffix")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
