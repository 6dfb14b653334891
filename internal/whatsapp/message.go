package whatsapp

const (
	messagingProduct    = "whatsapp"
	messageTypeTemplate = "template"
	componentTypeBody   = "body"
	parameterTypeText   = "text"
)

// TemplateMessage is the Cloud API body for a pre-approved template message.
type TemplateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         Template `json:"template"`
}

// Template references an approved template by name and language.
type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components"`
}

// Language selects the template translation.
type Language struct {
	Code string `json:"code"`
}

// Component fills one section of the template.
type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

// Parameter is a positional template placeholder value.
type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTemplateMessage builds a template message whose body placeholders are
// filled, in order, with texts.
func NewTemplateMessage(to, templateName, languageCode string, texts ...string) TemplateMessage {
	params := make([]Parameter, 0, len(texts))
	for _, text := range texts {
		params = append(params, Parameter{Type: parameterTypeText, Text: text})
	}
	return TemplateMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             messageTypeTemplate,
		Template: Template{
			Name:     templateName,
			Language: Language{Code: languageCode},
			Components: []Component{
				{Type: componentTypeBody, Parameters: params},
			},
		},
	}
}

// BodyTexts returns the body placeholder values in order.
func (m TemplateMessage) BodyTexts() []string {
	var texts []string
	for _, component := range m.Template.Components {
		if component.Type != componentTypeBody {
			continue
		}
		for _, param := range component.Parameters {
			texts = append(texts, param.Text)
		}
	}
	return texts
}
