package domain

// Commands are the typed inputs of the rental engine. Validate runs once, at
// the engine boundary, and normalises identities in place.

const MaxRentalDays int32 = 365

type CreateListingCommand struct {
	Owner       string   `json:"owner"`
	Asset       AssetRef `json:"asset"`
	PricePerDay int64    `json:"price_per_day"`
	MinDays     int32    `json:"min_days"`
	MaxDays     int32    `json:"max_days"`
}

func (c *CreateListingCommand) Validate(maxRentalDays int32) error {
	if err := ValidateAddress("owner", c.Owner); err != nil {
		return err
	}
	if err := c.Asset.Validate(); err != nil {
		return err
	}
	if c.PricePerDay <= 0 {
		return NewValidationError("price_per_day", "must be greater than zero")
	}
	if c.MinDays < 1 {
		return NewValidationError("min_days", "must be at least 1")
	}
	if c.MaxDays < c.MinDays {
		return NewValidationError("max_days", "must not be less than min_days")
	}
	if c.MaxDays > maxRentalDays {
		return NewValidationError("max_days", "exceeds the maximum rental period")
	}
	c.Owner = NormalizeAddress(c.Owner)
	c.Asset = c.Asset.Normalized()
	return nil
}

type PlaceBidCommand struct {
	ListingID  string `json:"listing_id"`
	Renter     string `json:"renter"`
	RentalDays int32  `json:"rental_days"`
	BidAmount  int64  `json:"bid_amount"`
}

// Validate checks the fields that do not depend on the listing. The rental
// days range is checked against the listing by the engine.
func (c *PlaceBidCommand) Validate() error {
	if c.ListingID == "" {
		return NewValidationError("listing_id", "is required")
	}
	if err := ValidateAddress("renter", c.Renter); err != nil {
		return err
	}
	if c.RentalDays < 1 {
		return NewValidationError("rental_days", "must be at least 1")
	}
	if c.BidAmount <= 0 {
		return NewValidationError("bid_amount", "must be greater than zero")
	}
	c.Renter = NormalizeAddress(c.Renter)
	return nil
}

type AcceptBidCommand struct {
	Owner string `json:"owner"`
	BidID string `json:"bid_id"`
}

func (c *AcceptBidCommand) Validate() error {
	if err := ValidateAddress("owner", c.Owner); err != nil {
		return err
	}
	if c.BidID == "" {
		return NewValidationError("bid_id", "is required")
	}
	c.Owner = NormalizeAddress(c.Owner)
	return nil
}

type ReturnNFTCommand struct {
	Renter   string `json:"renter"`
	RentalID string `json:"rental_id"`
}

func (c *ReturnNFTCommand) Validate() error {
	if err := ValidateAddress("renter", c.Renter); err != nil {
		return err
	}
	if c.RentalID == "" {
		return NewValidationError("rental_id", "is required")
	}
	c.Renter = NormalizeAddress(c.Renter)
	return nil
}

type CancelListingCommand struct {
	Owner     string `json:"owner"`
	ListingID string `json:"listing_id"`
}

func (c *CancelListingCommand) Validate() error {
	if err := ValidateAddress("owner", c.Owner); err != nil {
		return err
	}
	if c.ListingID == "" {
		return NewValidationError("listing_id", "is required")
	}
	c.Owner = NormalizeAddress(c.Owner)
	return nil
}

type CancelBidCommand struct {
	Renter string `json:"renter"`
	BidID  string `json:"bid_id"`
}

func (c *CancelBidCommand) Validate() error {
	if err := ValidateAddress("renter", c.Renter); err != nil {
		return err
	}
	if c.BidID == "" {
		return NewValidationError("bid_id", "is required")
	}
	c.Renter = NormalizeAddress(c.Renter)
	return nil
}
