package models

// Correlation carries the credential that produced a bind, for listeners.
// Exactly one of the ticket pair or AccessToken is set.
type Correlation struct {
	Ticket      string
	Service     string
	AccessToken string
}

// VerifiedIdentity is what a provider returns for a ticket.
// An empty UniversalID means verification failed.
type VerifiedIdentity struct {
	UniversalID            string
	Attributes             map[string]string
	ProxyGrantingTicketIOU string
}

// BindRequest asks the binder to resolve or create the account for a
// verified universal id.
type BindRequest struct {
	UniversalID            string
	Attributes             map[string]string
	Correlation            Correlation
	ProxyGrantingTicketIOU string
}

// BindRequestFromIdentity builds a request from a ticket verification result.
func BindRequestFromIdentity(v *VerifiedIdentity, corr Correlation) BindRequest {
	if v == nil {
		return BindRequest{Correlation: corr}
	}
	return BindRequest{
		UniversalID:            v.UniversalID,
		Attributes:             v.Attributes,
		Correlation:            corr,
		ProxyGrantingTicketIOU: v.ProxyGrantingTicketIOU,
	}
}

// BindResult is the resolved account and whether this bind created it.
type BindResult struct {
	Account                *Account
	Link                   *Link
	Created                bool
	ProxyGrantingTicketIOU string
}

// AuthenticatedEvent is emitted after a bind commits.
type AuthenticatedEvent struct {
	Account     *Account
	Created     bool
	Attributes  map[string]string
	Correlation Correlation
}

// Principal is the caller of an administrative action.
type Principal struct {
	Subject     string
	Username    string
	IsSuperuser bool
}

// SystemPrincipal is used by the operator CLI.
var SystemPrincipal = Principal{Subject: "system", Username: "binderctl", IsSuperuser: true}
