package model

import "encoding/json"

// Contact is the data structure for a person that we know.
// All fields with the exception of the Birthday field are required.
type Contact struct {
	Id          int64  `json:"id"           db:"id"`
	FirstName   string `json:"first_name"   db:"first_name"`
	LastName    string `json:"last_name"    db:"last_name"`
	Email       string `json:"email"        db:"email"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Birthday    *Date  `json:"birthday"     db:"birthday"`
}

// ContactFields holds the mutable fields of a contact. A nil field is not present and is left
// untouched when the fields are applied to a contact. ClearBirthday is set when the JSON carries
// "birthday": null and removes the birthday instead.
type ContactFields struct {
	FirstName   *string `json:"first_name,omitempty"   binding:"omitempty,min=1"`
	LastName    *string `json:"last_name,omitempty"    binding:"omitempty,min=1"`
	Email       *string `json:"email,omitempty"        binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,min=1"`
	Birthday    *Date   `json:"birthday,omitempty"`

	ClearBirthday bool `json:"-"`
}

// UnmarshalJSON decodes the fields and tells an explicit null birthday from a missing one.
func (f *ContactFields) UnmarshalJSON(b []byte) error {
	type plain ContactFields
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	_, present := keys["birthday"]
	*f = ContactFields(p)
	f.ClearBirthday = present && p.Birthday == nil
	return nil
}

// IsEmpty reports whether no field is present.
func (f ContactFields) IsEmpty() bool {
	return f.FirstName == nil && f.LastName == nil && f.Email == nil &&
		f.PhoneNumber == nil && f.Birthday == nil && !f.ClearBirthday
}

// Apply overwrites every present field on the contact.
func (f ContactFields) Apply(c *Contact) {
	if f.FirstName != nil {
		c.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		c.LastName = *f.LastName
	}
	if f.Email != nil {
		c.Email = *f.Email
	}
	if f.PhoneNumber != nil {
		c.PhoneNumber = *f.PhoneNumber
	}
	if f.Birthday != nil {
		birthday := *f.Birthday
		c.Birthday = &birthday
	} else if f.ClearBirthday {
		c.Birthday = nil
	}
}
