package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

func activeOffering() *entities.ProcedureOffering {
	return &entities.ProcedureOffering{
		ID:       "off-1",
		IsActive: true,
		Template: &entities.ProcedureTemplate{
			Name:        "MRI Knee without Contrast",
			Description: "Magnetic resonance imaging of the knee",
			SearchTerms: []string{"Knee Scan", "73721"},
			CategoryID:  "cat-imaging",
			IsActive:    true,
		},
		Location: &entities.Location{ID: "loc-1", IsActive: true},
	}
}

func TestOfferingFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter OfferingFilter
		mutate func(o *entities.ProcedureOffering)
		want   bool
	}{
		{name: "empty filter", want: true},
		{name: "name substring", filter: OfferingFilter{Text: "mri knee"}, want: true},
		{name: "description", filter: OfferingFilter{Text: "resonance"}, want: true},
		{name: "search term", filter: OfferingFilter{Text: "knee scan"}, want: true},
		{name: "billing code", filter: OfferingFilter{Text: "7372"}, want: true},
		{name: "no text match", filter: OfferingFilter{Text: "colonoscopy"}, want: false},
		{name: "category match", filter: OfferingFilter{CategoryID: "cat-imaging"}, want: true},
		{name: "category mismatch", filter: OfferingFilter{CategoryID: "cat-lab"}, want: false},
		{
			name:   "inactive offering",
			filter: OfferingFilter{ActiveOnly: true},
			mutate: func(o *entities.ProcedureOffering) { o.IsActive = false },
			want:   false,
		},
		{
			name:   "inactive template",
			filter: OfferingFilter{ActiveOnly: true},
			mutate: func(o *entities.ProcedureOffering) { o.Template.IsActive = false },
			want:   false,
		},
		{
			name:   "inactive location",
			filter: OfferingFilter{ActiveOnly: true},
			mutate: func(o *entities.ProcedureOffering) { o.Location.IsActive = false },
			want:   false,
		},
		{
			name:   "inactive ignored without ActiveOnly",
			mutate: func(o *entities.ProcedureOffering) { o.IsActive = false },
			want:   true,
		},
		{
			name:   "missing template",
			mutate: func(o *entities.ProcedureOffering) { o.Template = nil },
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := activeOffering()
			if tt.mutate != nil {
				tt.mutate(o)
			}
			assert.Equal(t, tt.want, tt.filter.Matches(o))
		})
	}
}

func TestProviderFilter_Matches(t *testing.T) {
	p := &entities.Provider{
		OrganizationName: "Capital Imaging Center",
		Bio:              "Outpatient radiology",
		Specialties:      []string{"Cardiology"},
	}

	assert.True(t, ProviderFilter{}.Matches(p))
	assert.True(t, ProviderFilter{Text: "imaging"}.Matches(p))
	assert.True(t, ProviderFilter{Text: "radiology"}.Matches(p))
	assert.True(t, ProviderFilter{Text: "cardio"}.Matches(p))
	assert.False(t, ProviderFilter{Text: "dental"}.Matches(p))
	assert.False(t, ProviderFilter{}.Matches(nil))
}
