package models

type SiteInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

type NavLink struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type Insurer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Asterisk string `json:"asterisk,omitempty"`
}

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type InsuranceOption struct {
	ID    InsuranceType `json:"id"`
	Label string        `json:"label"`
	Icon  string        `json:"icon"`
}
