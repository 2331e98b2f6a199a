package models

// RegisterInput is the registration payload after decoding.
type RegisterInput struct {
	Username    string       `json:"username" validate:"required,min=3,max=20,username"`
	Email       string       `json:"email" validate:"required,email"`
	Phone       string       `json:"phone" validate:"required,phone"`
	Password    string       `json:"password" validate:"required,min=6,max=72,bcryptlen"`
	FirstName   string       `json:"firstName" validate:"required,min=3"`
	LastName    string       `json:"lastName" validate:"required,min=3"`
	Profile     *Profile     `json:"profile,omitempty" validate:"omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// LoginInput carries an identifier (email, username or phone) and password.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

// UserResult is returned by the own-data lookup.
type UserResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// TokenInput is the payload of guarded bus calls.
type TokenInput struct {
	Authorization string `json:"authorization"`
}

const (
	MessageRegistered = "User registered successfully"
	MessageLoggedIn   = "Logged in successfully"
	MessageOwnData    = "User data fetched successfully"
	MessageLoggedOut  = "Logged out successfully"
)
