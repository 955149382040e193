package models

// Credentials are held only for the duration of a login call.
type Credentials struct {
	Username string
	Password string
}

// LoginRequest is the wire body of POST /Patient/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"Password"`
}

// SignupForm is the wire body of POST /Patient/auth/sign-in.
type SignupForm struct {
	Profile
	Password string `json:"Password"`
}

// Missing returns the names of required sign-up fields left empty.
// Middle name is optional.
func (f SignupForm) Missing() []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"email", f.Email},
		{"username", f.Username},
		{"password", f.Password},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
