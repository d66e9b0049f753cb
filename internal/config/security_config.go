package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

const rentalService = "/nftrental.v1.RentalService/"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Read-only and pure calculations
	rentalService + "CalculateRentalCost": SecurityPublic,
	rentalService + "GetListing":          SecurityPublic,
	rentalService + "GetRental":           SecurityPublic,
	rentalService + "GetReputation":       SecurityPublic,

	// Commands act on behalf of the token subject
	rentalService + "CreateListing":   SecurityAccess,
	rentalService + "PlaceBid":        SecurityAccess,
	rentalService + "AcceptBid":       SecurityAccess,
	rentalService + "ReturnNFT":       SecurityAccess,
	rentalService + "CancelListing":   SecurityAccess,
	rentalService + "CancelBid":       SecurityAccess,
	rentalService + "RetrySettlement": SecurityAccess,

	// Settlement detail is visible to the rental's parties only
	rentalService + "GetSettlement": SecurityAccess,

	// Inbox
	rentalService + "GetNotifications":     SecurityAccess,
	rentalService + "MarkNotificationRead": SecurityAccess,

	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
