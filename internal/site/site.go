// Package site serves the static brochure directory: contact details,
// navigation, insurance options, insurer hotlines and the claims FAQ.
package site

import (
	"strings"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/models"
)

var defaultInfo = models.SiteInfo{
	Name:        "OMERHSA",
	Description: "Correduría de Seguros experta en protección patrimonial.",
	Phone:       "+504 2222-0000",
	Email:       "info@omerhsa.com",
	Address:     "Tegucigalpa, Honduras",
}

var navLinks = []models.NavLink{
	{Name: "Inicio", Href: "/"},
	{Name: "Nosotros", Href: "/nosotros"},
	{Name: "Servicios", Href: "/servicios"},
	{Name: "Seguros", Href: "/seguros"},
	{Name: "Reclamos", Href: "/reclamos"},
	{Name: "Blog", Href: "/blog"},
	{Name: "Contacto", Href: "/contacto"},
}

// QuoteLink is appended to the mobile menu.
var QuoteLink = models.NavLink{Name: "Cotizar", Href: "/cotizar"}

var insuranceIcons = map[models.InsuranceType]string{
	models.InsuranceAuto:     "🚗",
	models.InsuranceMedical:  "🏥",
	models.InsuranceLife:     "🛡️",
	models.InsuranceBusiness: "🏢",
}

var insurers = []models.Insurer{
	{ID: "davivienda", Name: "Davivienda Seguros", Phone: "2275-1111"},
	{ID: "atlantida", Name: "Seguros Atlántida", Phone: "2216-0898"},
	{ID: "mapfre", Name: "Mapfre", Phone: "2216-2550", WhatsApp: "3301-0971"},
	{ID: "ficohsa", Name: "Ficohsa Seguros", Phone: "2280-2886", Asterisk: "*2886"},
}

var claimsFAQ = []models.FAQEntry{
	{
		Question: "¿Cuánto tiempo tengo para presentar un reclamo?",
		Answer:   "Generalmente, el plazo estipulado por las aseguradoras es de 3 a 5 días hábiles después de ocurrido el siniestro. Recomendamos hacerlo de inmediato.",
	},
	{
		Question: "¿Qué documentos necesito para un reclamo de auto?",
		Answer:   "Necesitarás: Licencia de conducir vigente, boleta de revisión del vehículo, parte policial (si aplica) y fotos de los daños.",
	},
	{
		Question: "¿Debo pagar un deducible?",
		Answer:   "Sí, la mayoría de las pólizas de daños tienen un deducible estipulado en la carátula de tu póliza. Este monto corre por cuenta del asegurado.",
	},
	{
		Question: "¿Cómo sé el estado de mi reclamo?",
		Answer:   "Puedes contactar a nuestro departamento de reclamos al +504 2222-0000 o escribirnos a reclamos@omerhsa.com con tu número de póliza.",
	},
}

// Directory is the read-only site data. Contact details may be overridden
// from the site config section.
type Directory struct {
	info models.SiteInfo
}

func NewDirectory(cfg config.SiteConfig) *Directory {
	info := defaultInfo
	if cfg.Name != "" {
		info.Name = cfg.Name
	}
	if cfg.Phone != "" {
		info.Phone = cfg.Phone
	}
	if cfg.Email != "" {
		info.Email = cfg.Email
	}
	if cfg.Address != "" {
		info.Address = cfg.Address
	}
	return &Directory{info: info}
}

func (d *Directory) Info() models.SiteInfo {
	return d.info
}

// Nav returns the header links; mobile adds the quote call to action.
func (d *Directory) Nav(mobile bool) []models.NavLink {
	out := append([]models.NavLink(nil), navLinks...)
	if mobile {
		out = append(out, QuoteLink)
	}
	return out
}

// InsuranceOptions are the step-1 cards of the quote wizard.
func (d *Directory) InsuranceOptions() []models.InsuranceOption {
	types := models.InsuranceTypes()
	out := make([]models.InsuranceOption, len(types))
	for i, t := range types {
		out[i] = models.InsuranceOption{ID: t, Label: t.Label(), Icon: insuranceIcons[t]}
	}
	return out
}

// InsurerContact is an insurer with its dialable links.
type InsurerContact struct {
	models.Insurer
	TelURL      string `json:"telUrl"`
	WhatsAppURL string `json:"whatsappUrl,omitempty"`
	AsteriskURL string `json:"asteriskUrl,omitempty"`
}

func (d *Directory) Insurers() []InsurerContact {
	out := make([]InsurerContact, len(insurers))
	for i, ins := range insurers {
		c := InsurerContact{Insurer: ins, TelURL: "tel:" + ins.Phone}
		if ins.WhatsApp != "" {
			c.WhatsAppURL = "https://wa.me/504" + strings.ReplaceAll(ins.WhatsApp, "-", "")
		}
		if ins.Asterisk != "" {
			c.AsteriskURL = "tel:" + strings.ReplaceAll(ins.Asterisk, "*", "")
		}
		out[i] = c
	}
	return out
}

func (d *Directory) FAQ() []models.FAQEntry {
	return append([]models.FAQEntry(nil), claimsFAQ...)
}
