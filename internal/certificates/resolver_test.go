package certificates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"event-system/feedback-portal/feedback-portal-backend/internal/forms"
)

func TestResolveFieldValueAnswerMatch(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "name", Text: "Jane Doe"},
		{FieldKey: "company", Text: "Acme Corp"},
	}

	v := ResolveFieldValue(FieldMapping{FormField: "company"}, answers, nil)
	assert.True(t, v.Mapped)
	assert.Equal(t, "Acme Corp", v.Text)
}

func TestResolveFieldValueTextWinsOverValue(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "name", Text: "Jane Doe", Value: "raw-value"},
	}

	v := ResolveFieldValue(FieldMapping{FormField: "name"}, answers, nil)
	assert.True(t, v.Mapped)
	assert.Equal(t, "Jane Doe", v.Text)
}

func TestResolveFieldValueStringValueFallback(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "role", Value: "Speaker"},
	}

	v := ResolveFieldValue(FieldMapping{FormField: "role"}, answers, nil)
	assert.True(t, v.Mapped)
	assert.Equal(t, "Speaker", v.Text)
}

func TestResolveFieldValueStructuredValueSkips(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "topics", Value: []string{"go", "pdf"}},
		{FieldKey: "score", Value: 42},
	}

	assert.False(t, ResolveFieldValue(FieldMapping{FormField: "topics"}, answers, nil).Mapped)
	assert.False(t, ResolveFieldValue(FieldMapping{FormField: "score"}, answers, nil).Mapped)
}

func TestResolveFieldValueIdentityFallback(t *testing.T) {
	identity := &forms.RespondentIdentity{Name: "Jane Doe", Email: "jane@example.com"}

	name := ResolveFieldValue(FieldMapping{FormField: IdentityFieldName}, nil, identity)
	assert.True(t, name.Mapped)
	assert.Equal(t, "Jane Doe", name.Text)

	email := ResolveFieldValue(FieldMapping{FormField: IdentityFieldEmail}, nil, identity)
	assert.True(t, email.Mapped)
	assert.Equal(t, "jane@example.com", email.Text)
}

func TestResolveFieldValueAnswerShadowsIdentity(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "name", Text: "Answered Name"},
	}
	identity := &forms.RespondentIdentity{Name: "Account Name"}

	v := ResolveFieldValue(FieldMapping{FormField: "name"}, answers, identity)
	assert.Equal(t, "Answered Name", v.Text)
}

func TestResolveFieldValueUnmatchedIsSilent(t *testing.T) {
	v := ResolveFieldValue(FieldMapping{FormField: "nonexistent"}, nil, nil)
	assert.False(t, v.Mapped)
	assert.Empty(t, v.Text)
}

func TestResolveFieldValueEmptyAnswerIsUnmapped(t *testing.T) {
	answers := []forms.Answer{
		{FieldKey: "nickname", Text: ""},
	}
	v := ResolveFieldValue(FieldMapping{FormField: "nickname"}, answers, nil)
	assert.False(t, v.Mapped)
}

func TestFieldStyleDefaults(t *testing.T) {
	s := FieldStyle{}.withDefaults()
	assert.Equal(t, 12.0, s.Size)
	assert.Equal(t, "#000000", s.Color)
	assert.Equal(t, AlignLeft, s.Alignment)
	assert.Equal(t, 200.0, s.MaxWidth)

	custom := FieldStyle{Size: 30, Color: "#ff0000", Alignment: AlignCenter, MaxWidth: 400}.withDefaults()
	assert.Equal(t, 30.0, custom.Size)
	assert.Equal(t, "#ff0000", custom.Color)
	assert.Equal(t, AlignCenter, custom.Alignment)
	assert.Equal(t, 400.0, custom.MaxWidth)
}
