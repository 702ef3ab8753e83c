package entity

// StoreProfile is the store identity printed at the top of every receipt
type StoreProfile struct {
	Name     string `json:"name"`
	Subtitle string `json:"subtitle,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	GSTIN    string `json:"gstin,omitempty"`
}

// Merge returns p with every empty field taken from fallback
func (p StoreProfile) Merge(fallback StoreProfile) StoreProfile {
	pick := func(v, d string) string {
		if v != "" {
			return v
		}
		return d
	}
	return StoreProfile{
		Name:     pick(p.Name, fallback.Name),
		Subtitle: pick(p.Subtitle, fallback.Subtitle),
		Phone:    pick(p.Phone, fallback.Phone),
		Address:  pick(p.Address, fallback.Address),
		GSTIN:    pick(p.GSTIN, fallback.GSTIN),
	}
}
