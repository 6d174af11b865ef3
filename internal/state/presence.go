package state

// Presence tracks connected users and their last known pointer position.
// Like History it relies on its owner for synchronization.
type Presence struct {
	users   map[UserID]User
	order   []UserID
	cursors map[UserID]Cursor
}

func NewPresence() *Presence {
	return &Presence{
		users:   make(map[UserID]User),
		cursors: make(map[UserID]Cursor),
	}
}

// Register adds or replaces a user. Re-registering keeps the original position in All.
func (p *Presence) Register(u User) {
	if _, exists := p.users[u.ID]; !exists {
		p.order = append(p.order, u.ID)
	}
	p.users[u.ID] = u
}

// Unregister drops the user together with its cursor.
func (p *Presence) Unregister(id UserID) {
	if _, exists := p.users[id]; !exists {
		return
	}
	delete(p.users, id)
	delete(p.cursors, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Presence) Get(id UserID) (User, bool) {
	u, ok := p.users[id]
	return u, ok
}

// All lists users in registration order.
func (p *Presence) All() []User {
	users := make([]User, 0, len(p.order))
	for _, id := range p.order {
		users = append(users, p.users[id])
	}
	return users
}

func (p *Presence) Len() int {
	return len(p.users)
}

// SetCursor records the pointer position of a registered user, last write wins.
func (p *Presence) SetCursor(id UserID, pos Point) (Cursor, error) {
	u, ok := p.users[id]
	if !ok {
		return Cursor{}, ErrUnknownUser
	}
	c := Cursor{UserID: id, Position: pos, Color: u.Color}
	p.cursors[id] = c
	return c, nil
}

func (p *Presence) GetCursor(id UserID) (Cursor, bool) {
	c, ok := p.cursors[id]
	return c, ok
}

func (p *Presence) RemoveCursor(id UserID) {
	delete(p.cursors, id)
}
