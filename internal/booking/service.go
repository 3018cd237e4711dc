package booking

import (
	"fmt"
	"strings"
)

// ServiceKind is the type of session a client asks for.
type ServiceKind string

const (
	ServiceIndividual   ServiceKind = "individual"
	ServiceGroup        ServiceKind = "group"
	ServiceWorkshop     ServiceKind = "workshop"
	ServiceConsultation ServiceKind = "consultation"
)

// ServiceOption is a catalog entry shown in the service dropdown.
type ServiceOption struct {
	Kind        ServiceKind `json:"value"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
}

// serviceCatalog is in display order.
var serviceCatalog = []ServiceOption{
	{
		Kind:        ServiceIndividual,
		Label:       "1-on-1 Therapy",
		Description: "Personalized sessions for individual growth and healing in a safe, confidential environment.",
	},
	{
		Kind:        ServiceGroup,
		Label:       "Group Sessions",
		Description: "Safe spaces to share, connect, and learn together with others on similar journeys.",
	},
	{
		Kind:        ServiceWorkshop,
		Label:       "Workshops & Activities",
		Description: "Practical exercises for stress management, mindfulness, and emotional well-being.",
	},
	{
		Kind:        ServiceConsultation,
		Label:       "Consultation",
		Description: "A first conversation to understand your needs and find the right kind of support.",
	},
}

// ServiceOptions returns the catalog in display order.
func ServiceOptions() []ServiceOption {
	out := make([]ServiceOption, len(serviceCatalog))
	copy(out, serviceCatalog)
	return out
}

// ParseServiceKind maps a form value onto the catalog. Empty input yields the
// empty kind, meaning "not chosen yet".
func ParseServiceKind(s string) (ServiceKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	kind := ServiceKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
	}
	return kind, nil
}

// Valid reports whether k is in the catalog.
func (k ServiceKind) Valid() bool {
	_, ok := k.option()
	return ok
}

// Label returns the display name, or the raw value when unknown.
func (k ServiceKind) Label() string {
	if opt, ok := k.option(); ok {
		return opt.Label
	}
	return string(k)
}

func (k ServiceKind) option() (ServiceOption, bool) {
	for _, opt := range serviceCatalog {
		if opt.Kind == k {
			return opt, true
		}
	}
	return ServiceOption{}, false
}
