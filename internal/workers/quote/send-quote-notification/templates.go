package sendquotenotification

import (
	"fmt"
	"strings"
)

type template struct {
	subject string
	body    string
}

const (
	templateCustomer   = "customer_confirmation"
	templateAdvisor    = "advisor_alert"
	templateAdvisorSMS = "advisor_sms"
)

var templates = map[string]template{
	templateCustomer: {
		subject: "Recibimos tu solicitud de {{insuranceName}}",
		body: "Hola {{firstName}},\n\n" +
			"Gracias por confiar en {{siteName}}. Un asesor experto analizará tu caso y te contactará al {{phone}} en menos de 2 horas laborables.\n\n" +
			"Resumen de tu solicitud:\n{{summary}}\n\n" +
			"Referencia: {{quoteId}}\n{{siteName}} {{sitePhone}}",
	},
	templateAdvisor: {
		subject: "Nueva solicitud de cotización: {{insuranceName}} - {{fullName}}",
		body:    "Se recibió una nueva solicitud desde el cotizador web.\n\n{{summary}}\n\nReferencia: {{quoteId}}",
	},
	templateAdvisorSMS: {
		body: "{{siteName}}: nueva cotización {{insuranceName}} de {{fullName}}, tel {{phone}}. Ref {{quoteId}}",
	},
}

func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	// Drop placeholders without a value.
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
