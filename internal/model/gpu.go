package model

import (
	"fmt"
	"regexp"
)

// GPUBrand is one of the brand families the pipeline recognizes.
type GPUBrand string

// The closed set of recognized GPU brands.
const (
	BrandRTX GPUBrand = "RTX"
	BrandGTX GPUBrand = "GTX"
	BrandRX  GPUBrand = "RX"
)

var modelNumberRe = regexp.MustCompile(`^\d{3,4}$`)

// GPUIdentity is a canonical (brand, model) pair extracted from listing text.
// A zero-value or otherwise invalid pair must never be passed around; use
// NewGPUIdentity so validation happens at the boundary.
type GPUIdentity struct {
	Brand GPUBrand `json:"brand"`
	Model string   `json:"model"`
}

// NewGPUIdentity validates and constructs a GPUIdentity. It returns an error
// if the brand is outside the closed set or the model is not a 3-4 digit
// number; callers treat that as "no identity found", not as a malformed value.
func NewGPUIdentity(brand GPUBrand, model string) (GPUIdentity, error) {
	switch brand {
	case BrandRTX, BrandGTX, BrandRX:
	default:
		return GPUIdentity{}, fmt.Errorf("unrecognized GPU brand: %q", brand)
	}
	if !modelNumberRe.MatchString(model) {
		return GPUIdentity{}, fmt.Errorf("invalid GPU model number: %q", model)
	}
	return GPUIdentity{Brand: brand, Model: model}, nil
}

// Keyword renders the identity in the BRAND,MODEL form used for price lookups.
func (g GPUIdentity) Keyword() string {
	return fmt.Sprintf("%s,%s", g.Brand, g.Model)
}

// String implements fmt.Stringer.
func (g GPUIdentity) String() string {
	return fmt.Sprintf("%s %s", g.Brand, g.Model)
}
