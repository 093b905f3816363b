package identify

import (
	"regexp"
	"strings"

	"github.com/nanopc/dealfinder/internal/model"
)

// maxKeywords caps how many identities a batch scan may yield.
const maxKeywords = 20

// maxScanListings bounds how many listings feed a batch extraction.
const maxScanListings = 50

// brandPattern ties a scan regex to the brand its match belongs to.
type brandPattern struct {
	re    *regexp.Regexp
	brand model.GPUBrand
}

// Text is upper-cased before scanning, so the patterns are case-sensitive.
var scanPatterns = []brandPattern{
	{regexp.MustCompile(`RTX\s*(\d{4})`), model.BrandRTX},
	{regexp.MustCompile(`GTX\s*(\d{4})`), model.BrandGTX},
	{regexp.MustCompile(`RX\s*(\d{4})`), model.BrandRX},
	{regexp.MustCompile(`GEFORCE\s*RTX\s*(\d{4})`), model.BrandRTX},
	{regexp.MustCompile(`GEFORCE\s*GTX\s*(\d{4})`), model.BrandGTX},
	{regexp.MustCompile(`RADEON\s*RX\s*(\d{4})`), model.BrandRX},
}

// ScanText extracts GPU identities from raw text using the fixed brand
// patterns. Deduplicated, capped at maxKeywords. This is the local fallback
// used when the completion service is unavailable or keeps failing.
func ScanText(texts ...string) []model.GPUIdentity {
	var identities []model.GPUIdentity
	seen := make(map[string]bool)

	for i, text := range texts {
		if i >= maxScanListings {
			break
		}
		upper := strings.ToUpper(text)
		for _, p := range scanPatterns {
			for _, m := range p.re.FindAllStringSubmatch(upper, -1) {
				identity, err := model.NewGPUIdentity(p.brand, m[1])
				if err != nil {
					continue
				}
				if seen[identity.Keyword()] {
					continue
				}
				seen[identity.Keyword()] = true
				identities = append(identities, identity)
				if len(identities) >= maxKeywords {
					return identities
				}
			}
		}
	}

	return identities
}
