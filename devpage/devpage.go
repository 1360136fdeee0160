/*
 * m65832 - Device-page registry: resolves Device Page IDs (class /
 * instance / page, encoded in PFN when PTE.DEV=1) to concrete MMIO
 * handlers.
 *
 * Grounded on github.com/rcornwell/S370 emu/sys_channel (chanDev's
 * devTab array mapping a numeric address to a Device interface) and
 * emu/device (the Device capability interface), re-keyed from an IBM
 * channel/subchannel address to the architecture's 20-bit Device Page
 * ID and moved from a package-level global to an owned registry per
 * DESIGN NOTES section 9.
 */
package devpage

import (
	"sync"

	"github.com/m65832/m65832/bus"
)

// ID is the 20-bit Device Page ID: class(4) / instance(8) / page(8).
type ID uint32

// NewID packs a class/instance/page triple into a Device Page ID.
func NewID(class, instance, page uint8) ID {
	return ID(uint32(class&0xF)<<16 | uint32(instance)<<8 | uint32(page))
}

func (id ID) Class() uint8    { return uint8((id >> 16) & 0xF) }
func (id ID) Instance() uint8 { return uint8((id >> 8) & 0xFF) }
func (id ID) Page() uint8     { return uint8(id & 0xFF) }

// Class namespace (spec.md section 6).
const (
	ClassReserved uint8 = 0
	ClassAppleII  uint8 = 1
)

// Handler is the capability set a device-page handler implements. It is
// consulted with the in-page offset and the access intent; it may
// complete the access or reject it, in which case the registry raises
// DeviceFault.
type Handler interface {
	Access(offset uint32, width int, intent bus.Intent, writeVal uint32) (value uint32, ok bool)
}

// Registry resolves Device Page IDs to handlers. One Registry is owned
// by an MMU and shared by every page table translated through it;
// compat.New keeps guests' device pages disjoint by using each guest's
// COMPATID (truncated to 8 bits) as the instance number of its Device
// Page ID. Two address spaces that map the same Device Page ID through
// one Registry reach the same handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[ID]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[ID]Handler)}
}

// Register installs a handler for a Device Page ID, replacing any
// previous handler for the same ID.
func (r *Registry) Register(id ID, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = h
}

// Unregister removes the handler for a Device Page ID.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

// Access dispatches to the handler registered for id. An unmapped ID or
// a handler rejection both raise DeviceFault with FAR=va (spec.md
// section 4.3); a debug-class access against a missing handler returns
// 0xFF with ok=false instead, per the testable property in spec.md
// section 8.
func (r *Registry) Access(id ID, va uint32, offset uint32, width int, intent bus.Intent, writeVal uint32) bus.Outcome {
	r.mu.RLock()
	h, found := r.handlers[id]
	r.mu.RUnlock()

	if !found {
		if intent.IsDebug() {
			return bus.Outcome{Value: 0xFF, Ok: false, Kind: bus.FaultDevice, Addr: va}
		}
		return bus.Fail(bus.FaultDevice, va)
	}

	value, ok := h.Access(offset, width, intent, writeVal)
	if !ok {
		if intent.IsDebug() {
			return bus.Outcome{Value: 0xFF, Ok: false, Kind: bus.FaultDevice, Addr: va}
		}
		return bus.Fail(bus.FaultDevice, va)
	}
	return bus.Outcome{Value: value, Ok: true, Addr: va}
}
