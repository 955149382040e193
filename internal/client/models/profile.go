// Package models holds the data types shared by the portal client packages:
// the patient profile, login and sign-up payloads, and OTP challenges.
package models

// Profile is the signed-in patient's record. JSON names match the portal API.
type Profile struct {
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	MiddleName  string `json:"MiddleName"`
	Email       string `json:"Email"`
	Username    string `json:"Username"`
	Address     string `json:"Address"`
	PhoneNumber string `json:"PhoneNumber"`
}

// FullName joins first and last name for display.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// ProfileUpdate is the body of a profile update. Email is deliberately absent:
// it only changes through the OTP-verified email change.
type ProfileUpdate struct {
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	MiddleName  string `json:"MiddleName"`
	Username    string `json:"Username"`
	Address     string `json:"Address"`
	PhoneNumber string `json:"PhoneNumber"`
}

// UpdateFrom strips p down to the fields a profile update may carry.
func UpdateFrom(p Profile) ProfileUpdate {
	return ProfileUpdate{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		MiddleName:  p.MiddleName,
		Username:    p.Username,
		Address:     p.Address,
		PhoneNumber: p.PhoneNumber,
	}
}

// Apply copies the update's fields onto p, leaving Email untouched.
func (u ProfileUpdate) Apply(p Profile) Profile {
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.MiddleName = u.MiddleName
	p.Address = u.Address
	p.PhoneNumber = u.PhoneNumber
	return p
}
