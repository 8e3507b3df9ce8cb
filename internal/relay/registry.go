package relay

// Observer is a connected channel that can receive broadcast frames.
type Observer interface {
	// Deliver hands a frame to the channel's outbound queue without blocking.
	// It returns false when the channel is not open or cannot accept more
	// frames; the frame is then dropped.
	Deliver(payload []byte) bool
}

// Registry maps groups to the observers currently watching them.
// Each observer watches at most one group. Registry is not safe for
// concurrent use; the Hub owns it.
type Registry struct {
	groups   map[string]map[Observer]struct{}
	watching map[Observer]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:   make(map[string]map[Observer]struct{}),
		watching: make(map[Observer]string),
	}
}

// Register makes o an observer of groupID, moving it out of any group it
// was watching before. Registering twice for the same group is a no-op.
func (r *Registry) Register(o Observer, groupID string) {
	if current, ok := r.watching[o]; ok {
		if current == groupID {
			return
		}
		r.remove(o, current)
	}

	set, ok := r.groups[groupID]
	if !ok {
		set = make(map[Observer]struct{})
		r.groups[groupID] = set
	}
	set[o] = struct{}{}
	r.watching[o] = groupID
}

// Unregister removes o from whatever group it watches and returns that group.
// Unknown observers are ignored.
func (r *Registry) Unregister(o Observer) (string, bool) {
	groupID, ok := r.watching[o]
	if !ok {
		return "", false
	}
	r.remove(o, groupID)
	return groupID, true
}

func (r *Registry) remove(o Observer, groupID string) {
	delete(r.watching, o)
	set := r.groups[groupID]
	delete(set, o)
	if len(set) == 0 {
		delete(r.groups, groupID)
	}
}

// Broadcast hands payload to every observer of groupID except sender.
// A nil sender excludes nobody. Observers that refuse the frame are skipped.
func (r *Registry) Broadcast(groupID string, sender Observer, payload []byte) (delivered, skipped int) {
	for o := range r.groups[groupID] {
		if sender != nil && o == sender {
			continue
		}
		if o.Deliver(payload) {
			delivered++
		} else {
			skipped++
		}
	}
	return delivered, skipped
}

// GroupOf returns the group o is watching.
func (r *Registry) GroupOf(o Observer) (string, bool) {
	groupID, ok := r.watching[o]
	return groupID, ok
}

// Observers returns how many observers watch groupID.
func (r *Registry) Observers(groupID string) int {
	return len(r.groups[groupID])
}

// Groups returns how many groups have at least one observer.
func (r *Registry) Groups() int {
	return len(r.groups)
}
