package domain

// Actor is an authenticated user performing an operation. The set of
// implementations is closed: Admin, Employee and Resident.
type Actor interface {
	ID() string
	Name() string
	Role() Role

	actor()
}

// Admin sees and manages every request.
type Admin struct {
	UserID   string
	FullName string
}

func (a Admin) ID() string   { return a.UserID }
func (a Admin) Name() string { return a.FullName }
func (Admin) Role() Role     { return RoleAdmin }
func (Admin) actor()         {}

// Employee handles requests of the categories assigned to them.
type Employee struct {
	UserID     string
	FullName   string
	Categories CategorySet
}

func (e Employee) ID() string   { return e.UserID }
func (e Employee) Name() string { return e.FullName }
func (Employee) Role() Role     { return RoleEmployee }
func (Employee) actor()         {}

// Assigned reports whether the category is one of the employee's.
func (e Employee) Assigned(categoryID string) bool {
	return e.Categories.Has(categoryID)
}

// Resident submits requests and talks on their own threads.
type Resident struct {
	UserID   string
	FullName string
}

func (r Resident) ID() string   { return r.UserID }
func (r Resident) Name() string { return r.FullName }
func (Resident) Role() Role     { return RoleResident }
func (Resident) actor()         {}

// CategorySet is an immutable set of category ids.
type CategorySet struct {
	ids map[string]struct{}
}

func NewCategorySet(ids ...string) CategorySet {
	set := CategorySet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		set.ids[id] = struct{}{}
	}
	return set
}

func (s CategorySet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s CategorySet) Len() int {
	return len(s.ids)
}

// NewActor converts the auth collaborator's user record into an actor.
// Assigned categories are only carried by employees.
func NewActor(user User) (Actor, error) {
	switch user.Role {
	case RoleAdmin:
		return Admin{UserID: user.ID, FullName: user.FullName}, nil
	case RoleEmployee:
		return Employee{
			UserID:     user.ID,
			FullName:   user.FullName,
			Categories: NewCategorySet(user.AssignedCategories...),
		}, nil
	case RoleResident:
		return Resident{UserID: user.ID, FullName: user.FullName}, nil
	default:
		return nil, ErrUnknownRole
	}
}
