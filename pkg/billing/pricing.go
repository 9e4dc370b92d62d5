package billing

import "fmt"

// PriceMap is the static price-catalogue mapping between paid tiers and the
// payment processor's price identifiers. It is configuration, not derived at
// runtime, and must be kept in sync with the processor's product catalogue.
type PriceMap struct {
	Starter string `env:"BILLING_STARTER_PRICE_ID"`
	Pro     string `env:"BILLING_PRO_PRICE_ID"`
	Club    string `env:"BILLING_CLUB_PRICE_ID"`
}

// PriceFor returns the configured price id for a paid tier.
// An unconfigured or non-paid tier is a configuration error for the request,
// never silently substituted with another tier's price.
func (m PriceMap) PriceFor(t Tier) (string, error) {
	var price string
	switch t {
	case TierStarter:
		price = m.Starter
	case TierPro:
		price = m.Pro
	case TierClub:
		price = m.Club
	default:
		return "", fmt.Errorf("%w: %q", ErrPriceNotConfigured, t)
	}
	if price == "" {
		return "", fmt.Errorf("%w: %q", ErrPriceNotConfigured, t)
	}
	return price, nil
}

// TierFor maps a processor price id back to its tier.
func (m PriceMap) TierFor(priceID string) (Tier, bool) {
	if priceID == "" {
		return "", false
	}
	switch priceID {
	case m.Starter:
		return TierStarter, true
	case m.Pro:
		return TierPro, true
	case m.Club:
		return TierClub, true
	}
	return "", false
}

// ResolveTier applies the update-event fallback chain: price map first, then
// the tier carried in event metadata, then starter. The caller logs when the
// final fallback fires (see DESIGN.md).
func (m PriceMap) ResolveTier(priceID string, metadataTier Tier) (tier Tier, fellBack bool) {
	if t, ok := m.TierFor(priceID); ok {
		return t, false
	}
	if metadataTier.Valid() {
		return metadataTier, false
	}
	return TierStarter, true
}
