package entities

// Provider is an organization that operates one or more locations
type Provider struct {
	ID                 string      `json:"id" db:"id"`
	OrganizationName   string      `json:"organization_name" db:"organization_name"`
	Bio                string      `json:"bio,omitempty" db:"bio"`
	Specialties        []string    `json:"specialties" db:"specialties"`
	Rating             float64     `json:"rating" db:"rating"`
	ReviewCount        int         `json:"review_count" db:"review_count"`
	SubscriptionStatus string      `json:"subscription_status" db:"subscription_status"`
	Locations          []*Location `json:"locations,omitempty" db:"-"`
}
