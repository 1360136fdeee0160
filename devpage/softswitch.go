/*
 * m65832 - Soft-switch provider registry.
 *
 * Any device may publish an ordered set of (symbolic_name, address,
 * boolean_state, description) entries so debuggers/observers can
 * enumerate hardware state without knowing device internals (spec.md
 * section 4.8). Grounded on the teacher's command surface which
 * resembles a process-wide registry (util/debug, command/parser); here
 * it is an owned set on the machine instance (DESIGN NOTES section 9).
 */
package devpage

// SoftSwitchInfo is one row of the soft-switch enumeration.
type SoftSwitchInfo struct {
	Name        string
	Address     uint32
	State       bool
	Description string
}

// SoftSwitchProvider is implemented by any device that wants its
// boolean state surfaced to debug tooling.
type SoftSwitchProvider interface {
	SoftSwitches() []SoftSwitchInfo
}

// SoftSwitchRegistry aggregates providers registered at device
// initialization time and enumerates them in registration order.
type SoftSwitchRegistry struct {
	providers []SoftSwitchProvider
}

// NewSoftSwitchRegistry creates an empty registry.
func NewSoftSwitchRegistry() *SoftSwitchRegistry {
	return &SoftSwitchRegistry{}
}

// Register appends a provider.
func (r *SoftSwitchRegistry) Register(p SoftSwitchProvider) {
	r.providers = append(r.providers, p)
}

// Enumerate returns every provider's soft switches, in registration
// order, each provider's own entries in the order it reports them.
func (r *SoftSwitchRegistry) Enumerate() []SoftSwitchInfo {
	var out []SoftSwitchInfo
	for _, p := range r.providers {
		out = append(out, p.SoftSwitches()...)
	}
	return out
}
