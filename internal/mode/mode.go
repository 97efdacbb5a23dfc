// Package mode defines the specialist persona identifiers shared by the
// flow engine, the switch advisor, and the memory store.
package mode

import "errors"

// ID names one specialist persona.
type ID string

const (
	Doctor       ID = "DOCTOR"
	Nutritionist ID = "NUTRITIONIST"
	Therapist    ID = "THERAPIST"
	Trainer      ID = "TRAINER"
	Sleep        ID = "SLEEP"
	Meditation   ID = "MEDITATION"
)

var ErrUnknown = errors.New("unknown mode")

// all is the fixed enumeration order. Declaration order matters: the
// switch advisor breaks ties by earliest position in this list.
var all = []ID{Doctor, Nutritionist, Therapist, Trainer, Sleep, Meditation}

// All returns the supported modes in declaration order.
func All() []ID {
	out := make([]ID, len(all))
	copy(out, all)
	return out
}

// Valid reports whether id names a supported mode.
func Valid(id ID) bool {
	for _, m := range all {
		if m == id {
			return true
		}
	}
	return false
}
