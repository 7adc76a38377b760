package scheduler

import "coopsched/pkg/namehash"

// Key derives a task ID from a name with the registry's hash function.
// Different names can collide; an empty name maps to 0.
func (r *Registry) Key(name string) ID {
	return ID(namehash.String(r.hash, name))
}

func (r *Registry) CreateRecurringNamed(name string, fn Callback, data any, period uint32) (Handle, error) {
	return r.CreateRecurring(r.Key(name), fn, data, period)
}

func (r *Registry) CreateSingleShotNamed(name string, fn Callback, data any, delay uint32) (Handle, error) {
	return r.CreateSingleShot(r.Key(name), fn, data, delay)
}

// FindByName is FindByIdentifier(Key(name)); on a hash collision it returns
// whichever colliding task comes first in the ring.
func (r *Registry) FindByName(name string) (Handle, bool) {
	return r.FindByIdentifier(r.Key(name))
}
