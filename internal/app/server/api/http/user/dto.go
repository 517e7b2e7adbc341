package user

type registerInput struct {
	Body credentialsRequest
}

type credentialsRequest struct {
	Username string `json:"username" doc:"Login name" minLength:"3" maxLength:"32"`
	Password string `json:"password" doc:"Login password" minLength:"8"`
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	ID     int    `json:"user_id"`
	Status string `json:"status"`
}

type loginInput struct {
	Body loginRequest
}

type loginRequest struct {
	Username string `json:"username" doc:"Login name" minLength:"3" maxLength:"32"`
	Password string `json:"password" doc:"Login password" minLength:"8"`
	// MasterPassword, when present, unlocks the vault in the same call.
	MasterPassword string `json:"master_password,omitempty" doc:"Optional vault master password to unlock immediately" required:"false"`
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Token    string `json:"token"`
	Status   string `json:"status"`
	Unlocked bool   `json:"unlocked" doc:"Whether the master key was cached during login"`
}

type logoutInput struct {
	Authorization string `header:"Authorization"`
}

type logoutOutput struct {
	Body LogoutResponse
}

type LogoutResponse struct {
	Status string `json:"status"`
}
