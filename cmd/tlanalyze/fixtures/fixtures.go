// Package fixtures is a small rex-routed demo package whose context
// structs give the -context-pkg/-context-type struct-catalog flags of
// tlanalyze a concrete, realistic target to extract from.
package fixtures

import (
	"fmt"

	"github.com/abiiranathan/rex"
)

// Patient is the template context's root: a clinic patient with an active
// Visit.
type Patient struct {
	Name string // Patient full name
	ID   uint   // Patient ID
	Visit
}

// Visit represents one patient visit, with the attending Doctor and every
// Prescription raised during it.
type Visit struct {
	ID            uint
	PatientID     uint
	Doctor        Doctor
	Prescriptions []Prescription
	Drugs         []Drug
}

// Doctor is the attending clinician.
type Doctor struct {
	DisplayName string
	ID          uint
}

// Drug is a billable item dispensed during a visit.
type Drug struct {
	Name     string
	Quantity int
	Price    float64
}

// Prescription links a Drug to its dosage instructions.
type Prescription struct {
	DrugName string
	Quantity int
	Dosage   string
	Drug     Drug
}

// Handler holds service dependencies for the fixture routes.
type Handler struct{}

// RenderTreatmentChart renders the treatment chart for one visit.
func (h *Handler) RenderTreatmentChart() rex.HandlerFunc {
	return func(c *rex.Context) error {
		visitID := c.ParamUint("visit_id")
		patient := &Patient{Visit: Visit{ID: visitID}}

		return c.Render("views/treatment-chart.html", rex.Map{
			"patient": patient,
			"title":   fmt.Sprintf("Treatment Chart #%d", visitID),
		})
	}
}
