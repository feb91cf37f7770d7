package model

// Contact is the data structure for a person that we know, as exchanged with the contacts API.
// The birthday is a calendar date in the form "YYYY-MM-DD" and may be absent.
type Contact struct {
	Id          int64   `json:"id,omitempty"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Birthday    *string `json:"birthday,omitempty"`
}
