// Package donation implements the pledge workflow: the form container, the
// controller that submits a pledge and reconciles stock, and the modal host
// that decides when the invoking screen is notified.
package donation

import "github.com/erazemk/doacoes/internal/model"

// Form holds the pledge form fields for one modal session.
type Form struct {
	DonorName    string
	DonorEmail   string
	ConsentGiven bool
}

// Set replaces all fields with in.
func (f *Form) Set(in model.PledgeForm) {
	f.DonorName = in.DonorName
	f.DonorEmail = in.DonorEmail
	f.ConsentGiven = in.ConsentGiven
}

// Values returns the fields as a model.PledgeForm.
func (f *Form) Values() model.PledgeForm {
	return model.PledgeForm{
		DonorName:    f.DonorName,
		DonorEmail:   f.DonorEmail,
		ConsentGiven: f.ConsentGiven,
	}
}

// Reset clears every field, consent included.
func (f *Form) Reset() {
	*f = Form{}
}

// Empty reports whether the form holds no input.
func (f *Form) Empty() bool {
	return *f == Form{}
}
