package memory

import (
	"sort"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
)

// AddClient stores c outside of any transaction and returns its id.
func (s *Store) AddClient(c model.Client) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextClient++
	c.ID = s.st.nextClient
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
		c.UpdatedAt = c.CreatedAt
	}
	s.st.clients[c.ID] = c
	return c.ID
}

// AddRoom stores r and returns its id.  An empty availability means
// available.
func (s *Store) AddRoom(r model.Room) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextRoom++
	r.ID = s.st.nextRoom
	if r.Availability == "" {
		r.Availability = model.RoomAvailable
	}
	s.st.rooms[r.ID] = r
	return r.ID
}

func (s *Store) Room(id uint64) (model.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.rooms[id]
	return r, ok
}

func (s *Store) Booking(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	return b, ok
}

func (s *Store) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.st.bookings))
	for _, b := range s.st.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Archives() []model.Archive {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Archive, 0, len(s.st.archives))
	for _, a := range s.st.archives {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Incomes() []model.Income {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Income, 0, len(s.st.incomes))
	for _, in := range s.st.incomes {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
