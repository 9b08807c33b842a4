package entity

// ResolveAmount returns the single monetary estimate used wherever revenue is
// summed. The first positive candidate wins: post-visit discounted estimate,
// post-visit regular estimate, phone-consultation estimate, treatment cost.
func ResolveAmount(p *Patient) float64 {
	var candidates [4]float64
	if pv := p.PostVisitConsultation; pv != nil {
		candidates[0] = pv.Estimate.DiscountPrice
		candidates[1] = pv.Estimate.RegularPrice
	}
	if c := p.Consultation; c != nil {
		candidates[2] = c.EstimatedAmount
	}
	candidates[3] = p.TreatmentCost

	for _, v := range candidates {
		if v > 0 {
			return v
		}
	}
	return 0
}
