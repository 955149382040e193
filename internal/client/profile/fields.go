package profile

import (
	"fmt"

	"github.com/dmitrijs2005/aldente/internal/client/models"
)

// EditableFields lists the names accepted by Store.SetField.
var EditableFields = []string{"firstName", "lastName", "middleName", "address", "phoneNumber"}

func field(p *models.Profile, name string) (*string, error) {
	switch name {
	case "firstName":
		return &p.FirstName, nil
	case "lastName":
		return &p.LastName, nil
	case "middleName":
		return &p.MiddleName, nil
	case "address":
		return &p.Address, nil
	case "phoneNumber":
		return &p.PhoneNumber, nil
	case "email", "username":
		return nil, fmt.Errorf("%w: %s", ErrFieldNotEditable, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}
