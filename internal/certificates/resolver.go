package certificates

import (
	"event-system/feedback-portal/feedback-portal-backend/internal/forms"
)

// ResolvedValue is the outcome of resolving one field mapping against a
// response. Mapped is false when the mapping matched nothing usable, which
// tells the compositor to skip drawing entirely rather than render an empty
// string.
type ResolvedValue struct {
	Text   string
	Mapped bool
}

// ResolveFieldValue produces the string to render for a mapping.
//
// Lookup order: an exact answer match on the mapping's form field wins; then,
// for the reserved identity keys ("name", "email"), the collaborator-supplied
// identity; otherwise the mapping is unmapped. An unmatched field is not an
// error — templates may over-specify mappings for optional form fields.
func ResolveFieldValue(mapping FieldMapping, answers []forms.Answer, identity *forms.RespondentIdentity) ResolvedValue {
	for i := range answers {
		if answers[i].FieldKey != mapping.FormField {
			continue
		}
		return valueOf(&answers[i])
	}

	if identity != nil {
		switch mapping.FormField {
		case IdentityFieldName:
			return resolved(identity.Name)
		case IdentityFieldEmail:
			return resolved(identity.Email)
		}
	}

	return ResolvedValue{}
}

// valueOf extracts the textual value of a matched answer. Text wins when
// present; otherwise only string values render. Structured values (arrays,
// maps, numbers) skip the mapping instead of producing malformed output.
func valueOf(a *forms.Answer) ResolvedValue {
	if a.Text != "" {
		return resolved(a.Text)
	}
	if s, ok := a.Value.(string); ok {
		return resolved(s)
	}
	return ResolvedValue{}
}

func resolved(text string) ResolvedValue {
	if text == "" {
		return ResolvedValue{}
	}
	return ResolvedValue{Text: text, Mapped: true}
}
