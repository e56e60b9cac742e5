package forms

import (
	"time"
)

// Form is the slice of the forms collaborator this subsystem reads: identity
// plus the title used in default certificate email subjects.
type Form struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Answer is one answered field of a response. Text carries the display value
// for choice questions; Value carries the raw answer for everything else.
type Answer struct {
	FieldKey string      `bson:"field_key" json:"field_key"`
	Text     string      `bson:"text,omitempty" json:"text,omitempty"`
	Value    interface{} `bson:"value,omitempty" json:"value,omitempty"`
}

// RespondentIdentity is the submitter's authenticated identity as supplied by
// the forms collaborator. It may be absent for anonymous submissions.
type RespondentIdentity struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// Response is a single submission to a form.
type Response struct {
	ID         string              `bson:"_id" json:"id"`
	FormID     string              `bson:"form_id" json:"form_id"`
	Answers    []Answer            `bson:"answers" json:"answers"`
	Respondent *RespondentIdentity `bson:"respondent,omitempty" json:"respondent,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}

// Answer returns the answer for a field key, or nil when the response does
// not contain it.
func (r *Response) Answer(fieldKey string) *Answer {
	for i := range r.Answers {
		if r.Answers[i].FieldKey == fieldKey {
			return &r.Answers[i]
		}
	}
	return nil
}
