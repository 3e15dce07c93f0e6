package model

import "time"

type CreateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EventDate       time.Time `json:"event_date"`
	RegisteredQuota int       `json:"registered_quota"`
}

type CreateEventResponse struct {
	Event Event `json:"event"`
}

type RegisterEventRequest struct {
	EventID        string `json:"event_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

type RegisterEventResponse struct {
	Event Event `json:"event"`
}

type UnregisterEventRequest struct {
	EventID string `json:"event_id"`
}

type UnregisterEventResponse struct {
	Event Event `json:"event"`
}

type GetEventRequest struct {
	EventID string `form:"event_id"`
}

type GetEventResponse struct {
	Event        Event `json:"event"`
	IsRegistered bool  `json:"is_registered"`
}

type GetListEventRequest struct {
	CompanyID string `form:"company_id"`
	Upcoming  bool   `form:"upcoming"`
	Offset    int    `form:"offset"`
	Limit     int    `form:"limit"`
}

type GetListEventResponse struct {
	Events []Event `json:"events"`
}

type GetEventRegistrationsRequest struct {
	EventID string `form:"event_id"`
}

type GetEventRegistrationsResponse struct {
	Registrations []EventRegistration `json:"registrations"`
}
