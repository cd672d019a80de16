package domain

// User is a directory entry. Authentication happens upstream; the engine
// only reads location and manager wiring from it.
type User struct {
	ID         string
	Email      string
	FullName   string
	LocationID *int64
	ManagerID  *string
	IsAdmin    bool
}

// Caller is the explicit identity context threaded into every workflow
// call in place of any ambient current-user state.
type Caller struct {
	ID         string
	LocationID *int64
	ManagerID  *string
	IsAdmin    bool
}

// CallerFromUser projects a directory entry into a caller context.
func CallerFromUser(u *User) Caller {
	return Caller{
		ID:         u.ID,
		LocationID: u.LocationID,
		ManagerID:  u.ManagerID,
		IsAdmin:    u.IsAdmin,
	}
}
