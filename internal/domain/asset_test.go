package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumAddress(t *testing.T) {
	// EIP-55 reference vectors
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		t.Run(v, func(t *testing.T) {
			assert.Equal(t, v, ChecksumAddress(NormalizeAddress(v)))
			assert.NoError(t, ValidateAddress("addr", v))
		})
	}
}

func TestValidateAddress(t *testing.T) {
	t.Run("All lowercase is accepted", func(t *testing.T) {
		assert.NoError(t, ValidateAddress("owner", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	})

	t.Run("Bad checksum", func(t *testing.T) {
		err := ValidateAddress("owner", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		require.Error(t, err)
		assert.True(t, IsKind(err, ErrorKindValidation))
		assert.Contains(t, err.Error(), "checksum")
	})

	t.Run("Wrong length", func(t *testing.T) {
		err := ValidateAddress("owner", "0x1234")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "owner", ve.Field)
	})

	t.Run("Missing prefix", func(t *testing.T) {
		assert.Error(t, ValidateAddress("owner", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00"))
	})

	t.Run("Non hex", func(t *testing.T) {
		assert.Error(t, ValidateAddress("owner", "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	})
}

func TestAssetRef_Validate(t *testing.T) {
	contract := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

	assert.NoError(t, AssetRef{Contract: contract, TokenID: "7"}.Validate())

	err := AssetRef{Contract: contract}.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "asset.token_id", ve.Field)

	assert.Error(t, AssetRef{Contract: contract, TokenID: "-1"}.Validate())
	assert.Error(t, AssetRef{Contract: "0xNFT", TokenID: "7"}.Validate())
}

func TestCreateListingCommand_Validate(t *testing.T) {
	valid := func() CreateListingCommand {
		return CreateListingCommand{
			Owner:       "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			Asset:       AssetRef{Contract: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", TokenID: "7"},
			PricePerDay: 10,
			MinDays:     1,
			MaxDays:     30,
		}
	}

	t.Run("Normalises identities", func(t *testing.T) {
		cmd := valid()
		require.NoError(t, cmd.Validate(MaxRentalDays))
		assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", cmd.Owner)
		assert.Equal(t, "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", cmd.Asset.Contract)
	})

	cases := []struct {
		name  string
		mut   func(*CreateListingCommand)
		field string
	}{
		{"Zero price", func(c *CreateListingCommand) { c.PricePerDay = 0 }, "price_per_day"},
		{"Negative price", func(c *CreateListingCommand) { c.PricePerDay = -5 }, "price_per_day"},
		{"Min below one", func(c *CreateListingCommand) { c.MinDays = 0 }, "min_days"},
		{"Max below min", func(c *CreateListingCommand) { c.MinDays = 5; c.MaxDays = 4 }, "max_days"},
		{"Max above limit", func(c *CreateListingCommand) { c.MaxDays = 366 }, "max_days"},
		{"Bad owner", func(c *CreateListingCommand) { c.Owner = "alice" }, "owner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := valid()
			tc.mut(&cmd)
			err := cmd.Validate(MaxRentalDays)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestPlaceBidCommand_Validate(t *testing.T) {
	cmd := PlaceBidCommand{ListingID: "l-1", Renter: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", RentalDays: 5, BidAmount: 50}
	assert.NoError(t, cmd.Validate())

	cmd.BidAmount = 0
	assert.True(t, IsKind(cmd.Validate(), ErrorKindValidation))

	cmd.BidAmount = 50
	cmd.RentalDays = 0
	assert.True(t, IsKind(cmd.Validate(), ErrorKindValidation))
}
