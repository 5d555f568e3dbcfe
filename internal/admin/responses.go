package admin

import (
	"time"

	"casbinder/internal/binder/models"
)

// AccountResponse is the HTTP response DTO for one directory account.
type AccountResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	HasPassword bool      `json:"has_usable_password"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccountsListResponse wraps the list of accounts for HTTP response.
type AccountsListResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// ActionsResponse lists the actions offered to the caller.
type ActionsResponse struct {
	Actions []Action `json:"actions"`
}

// BatchErrorResponse carries provider messages, capped for display.
type BatchErrorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

func ToAccountResponse(a *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID.String(),
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		IsActive:    a.IsActive,
		IsSuperuser: a.IsSuperuser,
		HasPassword: a.HasUsablePassword(),
		CreatedAt:   a.CreatedAt,
	}
}

func ToAccountsListResponse(accounts []*models.Account) *AccountsListResponse {
	out := make([]*AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, ToAccountResponse(a))
	}
	return &AccountsListResponse{Accounts: out, Total: len(out)}
}
