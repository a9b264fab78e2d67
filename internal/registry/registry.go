// Package registry holds the process-global, immutable Source Registry
// (C1): a map of service name to SourceDescriptor plus the lookup
// operations the rest of the pipeline calls against it. Each New() call
// builds the descriptors from standardSources(); they are never mutated
// afterward.
package registry

import (
	"fmt"

	"github.com/waterinstitute/metget/internal/model"
)

// Registry exposes describe/variable lookups against the static,
// process-global source table.
type Registry struct {
	sources map[string]*model.SourceDescriptor
}

// New returns a Registry pre-populated with the standard model family
// table (spec §1's named sources plus the WPC descriptor supplied by
// SPEC_FULL).
func New() *Registry {
	r := &Registry{sources: make(map[string]*model.SourceDescriptor)}
	for _, d := range standardSources() {
		r.sources[d.Name] = d
	}
	return r
}

// Describe returns the descriptor for a service name.
func (r *Registry) Describe(service string) (*model.SourceDescriptor, error) {
	d, ok := r.sources[service]
	if !ok {
		return nil, model.NewError(model.ErrValidation, "Registry.Describe", fmt.Errorf("unknown service: %s", service))
	}
	return d, nil
}

// Variable returns the binding for one MetDataType within a service.
func (r *Registry) Variable(service string, m model.MetDataType) (model.VariableBinding, error) {
	d, err := r.Describe(service)
	if err != nil {
		return model.VariableBinding{}, err
	}
	b, ok := d.Variable(m)
	if !ok {
		return model.VariableBinding{}, model.NewError(model.ErrValidation, "Registry.Variable", fmt.Errorf("%s does not advertise %s", service, m))
	}
	return b, nil
}

// SelectedVariables returns the intersection of the VariableType's
// components with those the source actually advertises. It fails when vt
// is not a known VariableType or when the source advertises none of its
// components.
func (r *Registry) SelectedVariables(service string, vt model.VariableType) ([]model.MetDataType, error) {
	d, err := r.Describe(service)
	if err != nil {
		return nil, err
	}
	wanted, err := vt.Select()
	if err != nil {
		return nil, model.NewError(model.ErrValidation, "Registry.SelectedVariables", err)
	}
	var out []model.MetDataType
	for _, m := range wanted {
		if _, ok := d.Variable(m); ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, model.NewError(model.ErrValidation, "Registry.SelectedVariables", fmt.Errorf("%s: no components of %s are advertised", service, vt))
	}
	return out, nil
}

// Services returns every registered service name.
func (r *Registry) Services() []string {
	out := make([]string, 0, len(r.sources))
	for name := range r.sources {
		out = append(out, name)
	}
	return out
}
