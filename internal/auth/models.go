package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Settings are the per-user planning defaults applied when a plan or
// query does not specify its own values.
type Settings struct {
	UserID             string    `json:"user_id,omitempty"`
	DistanceUnit       string    `json:"distance_unit"`
	DefaultStoppageSec float64   `json:"default_stoppage_sec"`
	SampleStepM        float64   `json:"sample_step_m"`
	GradeWindowM       float64   `json:"grade_window_m"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SettingsRequest carries partial settings updates; nil fields keep
// their current value.
type SettingsRequest struct {
	DistanceUnit       *string  `json:"distance_unit"`
	DefaultStoppageSec *float64 `json:"default_stoppage_sec"`
	SampleStepM        *float64 `json:"sample_step_m"`
	GradeWindowM       *float64 `json:"grade_window_m"`
}
