package ecs

import "fmt"

// Entity is a stable, opaque handle to a single world-managed object: an
// identity, not a container. Equality is by both ID and Gen. Handles are
// totally ordered by ID for debug purposes only.
type Entity struct {
	ID  uint32
	Gen uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity{%d:%d}", e.ID, e.Gen)
}

// location is where an entity's row currently lives.
type location struct {
	archetype uint32
	row       uint32
}

type entityMeta struct {
	gen   uint32
	loc   location
	alive bool
}

// directory is the dense id -> (archetype, row) mapping with generational
// recycling of freed ids, as described by the world's entity lifecycle.
type directory struct {
	meta     []entityMeta
	freeList []uint32
}

func newDirectory() directory {
	return directory{}
}

// alloc reserves a fresh Entity handle, reusing the most recently freed id
// (whose generation free already bumped) when the free list is non-empty.
func (d *directory) alloc() Entity {
	if n := len(d.freeList); n > 0 {
		id := d.freeList[n-1]
		d.freeList = d.freeList[:n-1]
		m := &d.meta[id]
		m.alive = true
		return Entity{ID: id, Gen: m.gen}
	}

	id := uint32(len(d.meta))
	d.meta = append(d.meta, entityMeta{gen: 0, alive: true})
	return Entity{ID: id, Gen: 0}
}

// free invalidates e's directory entry, bumps its stored generation so
// stale handles are rejected, and recycles the id. 32 bits of generation is
// ample headroom; on wraparound the id is simply never recycled again.
func (d *directory) free(e Entity) error {
	m, err := d.validate(e)
	if err != nil {
		return err
	}
	m.alive = false
	m.loc = location{}
	if m.gen != ^uint32(0) {
		m.gen++
		d.freeList = append(d.freeList, e.ID)
	}
	return nil
}

// clear despawns every currently-live id, bumping each one's generation
// exactly as free does for a single entity, and rebuilds freeList from
// scratch. Ids already on freeList (freed earlier) stay on it untouched --
// their generation was already bumped when they were freed -- and ids
// retired on generation wraparound stay off it.
func (d *directory) clear() {
	onFreeList := make([]bool, len(d.meta))
	for _, id := range d.freeList {
		onFreeList[id] = true
	}
	d.freeList = d.freeList[:0]
	for id := range d.meta {
		m := &d.meta[id]
		if !m.alive {
			if onFreeList[id] {
				d.freeList = append(d.freeList, uint32(id))
			}
			continue
		}
		m.alive = false
		m.loc = location{}
		if m.gen != ^uint32(0) {
			m.gen++
			d.freeList = append(d.freeList, uint32(id))
		}
	}
}

func (d *directory) validate(e Entity) (*entityMeta, error) {
	if int(e.ID) >= len(d.meta) {
		return nil, NoSuchEntityError{e}
	}
	m := &d.meta[e.ID]
	if !m.alive || m.gen != e.Gen {
		return nil, NoSuchEntityError{e}
	}
	return m, nil
}

func (d *directory) get(e Entity) (location, error) {
	m, err := d.validate(e)
	if err != nil {
		return location{}, err
	}
	return m.loc, nil
}

// setByID updates the location for id directly, without validating a
// generation. Used internally to fix up the directory entry of whichever
// entity got swapped into a vacated row; the world always knows that id is
// currently alive, so the generation check would be redundant.
func (d *directory) setByID(id uint32, loc location) {
	d.meta[id].loc = loc
}

func (d *directory) contains(e Entity) bool {
	_, err := d.validate(e)
	return err == nil
}

// used reports how many ids currently refer to a live entity.
func (d *directory) used() int {
	return len(d.meta) - len(d.freeList)
}
