package models

// Airport represents an active airport served by the fares source
type Airport struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
}

// DisplayName returns the label used in airport pickers, e.g. "Dublin (DUB)"
func (a Airport) DisplayName() string {
	return a.Name + " (" + a.Code + ")"
}
