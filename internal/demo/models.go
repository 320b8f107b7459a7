package demo

import "time"

// DemoRequest is one persisted "book a demo" submission. Records are written
// once and never updated.
type DemoRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   *string   `json:"company,omitempty"`
	Message   *string   `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingRequest is the client submission as received by the API.
type BookingRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   string  `json:"email" validate:"required,max=254,basicemail"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=5000"`
}

// Summary is the projection returned by the booking and listing endpoints.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   *string   `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d *DemoRequest) Summary() Summary {
	return Summary{ID: d.ID, Name: d.Name, Email: d.Email, Company: d.Company, CreatedAt: d.CreatedAt}
}
