package identify

import (
	"regexp"
	"strings"

	"github.com/nanopc/dealfinder/internal/model"
)

// embeddedIdentityRe recovers a BRAND MODEL pair buried inside a noisier
// model token, e.g. "GeForce RTX 3070 8GB".
var embeddedIdentityRe = regexp.MustCompile(`(RTX|GTX|RX)\s*(\d{3,4})`)

// parseIdentityResponse parses a completion response that was instructed to
// answer with BRAND,MODEL or the literal NONE. It returns ok=false for NONE,
// for malformed responses, and for well-formed answers that fail the closed
// brand set or the digit-count rule. Callers must not retry on ok=false when
// the response itself was non-empty.
func parseIdentityResponse(raw string) (model.GPUIdentity, bool) {
	line := firstNonEmptyLine(raw)
	if line == "" {
		return model.GPUIdentity{}, false
	}

	if strings.EqualFold(line, "NONE") {
		return model.GPUIdentity{}, false
	}

	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return model.GPUIdentity{}, false
	}

	brand := strings.ToUpper(strings.TrimSpace(parts[0]))
	number := strings.ToUpper(strings.TrimSpace(parts[1]))

	// Vendor-prefixed brand tokens collapse onto the closed set.
	switch {
	case strings.HasPrefix(brand, "GEFORCE"), strings.HasPrefix(brand, "QUADRO"):
		brand = string(model.BrandGTX)
	case strings.HasPrefix(brand, "RADEON"):
		brand = string(model.BrandRX)
	}

	identity, err := model.NewGPUIdentity(model.GPUBrand(brand), number)
	if err == nil {
		return identity, true
	}

	// The model token sometimes carries the whole name ("RTX 3070 Ti").
	if m := embeddedIdentityRe.FindStringSubmatch(number); m != nil {
		identity, err := model.NewGPUIdentity(model.GPUBrand(m[1]), m[2])
		if err == nil {
			return identity, true
		}
	}

	return model.GPUIdentity{}, false
}

func firstNonEmptyLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// parseKeywordLines parses the batch keyword-extraction response: one
// BRAND,MODEL pair per line, comment lines skipped, malformed lines dropped.
func parseKeywordLines(raw string) []model.GPUIdentity {
	var identities []model.GPUIdentity
	seen := make(map[string]bool)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ",") {
			continue
		}

		identity, ok := parseIdentityResponse(line)
		if !ok {
			continue
		}
		if seen[identity.Keyword()] {
			continue
		}
		seen[identity.Keyword()] = true
		identities = append(identities, identity)

		if len(identities) >= maxKeywords {
			break
		}
	}

	return identities
}
