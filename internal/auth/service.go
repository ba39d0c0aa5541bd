package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lancewilhelm/shpacer-sub001/internal/db"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Indirections for tests.
var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	signTokenFn       = (*Service).signToken
	parseWithClaimsFn = jwt.ParseWithClaims
)

type Service struct {
	secret   []byte
	db       db.Querier
	defaults Settings
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewService builds the auth service. defaults supplies the settings
// returned for users who never saved their own.
func NewService(secret string, q db.Querier, defaults Settings) *Service {
	return &Service{
		secret:   []byte(secret),
		db:       q,
		defaults: defaults,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return User{}, TokenResponse{}, errors.New("email, username, password required")
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, username, password_hash, display_name)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.Username, user.PasswordHash, user.DisplayName)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, username, password_hash, display_name, created_at, updated_at
		FROM users WHERE email = $1
	`, req.Email)

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, errInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID string) (TokenResponse, error) {
	access, err := signTokenFn(s, userID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, userID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.UserID, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Settings returns the stored settings for userID, or the service
// defaults when the user never saved any.
func (s *Service) Settings(ctx context.Context, userID string) (Settings, error) {
	row := s.db.QueryRow(ctx, `
		SELECT distance_unit, default_stoppage_sec, sample_step_m, grade_window_m, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID)

	out := Settings{UserID: userID}
	err := row.Scan(&out.DistanceUnit, &out.DefaultStoppageSec, &out.SampleStepM, &out.GradeWindowM, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		out = s.defaults
		out.UserID = userID
		return out, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return out, nil
}

// UpdateSettings merges req over the user's current settings and
// upserts the result.
func (s *Service) UpdateSettings(ctx context.Context, userID string, req SettingsRequest) (Settings, error) {
	current, err := s.Settings(ctx, userID)
	if err != nil {
		return Settings{}, err
	}

	if req.DistanceUnit != nil {
		current.DistanceUnit = *req.DistanceUnit
	}
	if req.DefaultStoppageSec != nil {
		current.DefaultStoppageSec = *req.DefaultStoppageSec
	}
	if req.SampleStepM != nil {
		current.SampleStepM = *req.SampleStepM
	}
	if req.GradeWindowM != nil {
		current.GradeWindowM = *req.GradeWindowM
	}
	if err := validateSettings(current); err != nil {
		return Settings{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO user_settings (user_id, distance_unit, default_stoppage_sec, sample_step_m, grade_window_m, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (user_id) DO UPDATE SET
			distance_unit = EXCLUDED.distance_unit,
			default_stoppage_sec = EXCLUDED.default_stoppage_sec,
			sample_step_m = EXCLUDED.sample_step_m,
			grade_window_m = EXCLUDED.grade_window_m,
			updated_at = now()
		RETURNING updated_at
	`, userID, current.DistanceUnit, current.DefaultStoppageSec, current.SampleStepM, current.GradeWindowM)
	if err := row.Scan(&current.UpdatedAt); err != nil {
		return Settings{}, err
	}
	current.UserID = userID
	return current, nil
}

func validateSettings(s Settings) error {
	if s.DistanceUnit != "km" && s.DistanceUnit != "mi" {
		return errors.New("distance_unit must be km or mi")
	}
	if s.DefaultStoppageSec < 0 {
		return errors.New("default_stoppage_sec must not be negative")
	}
	if s.SampleStepM < 1 {
		return errors.New("sample_step_m must be at least 1")
	}
	if s.GradeWindowM <= 0 {
		return errors.New("grade_window_m must be positive")
	}
	return nil
}

func (s *Service) signToken(userID string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}

var errInvalidCredentials = errors.New("invalid credentials")
