package dto

// BookingResult is the outcome reported to the guest. Success stays true once the reservation
// is recorded, whatever happened to the confirmation emails.
type BookingResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	OrderReference string `json:"orderReference,omitempty"`
	Duplicate      bool   `json:"duplicate,omitempty"`
}

type GuestInfo struct {
	Name    string `json:"name" validate:"required"`
	Surname string `json:"surname" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}
