package models

// Role distinguishes parent and child profiles within a household.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// User is the global profile stored at users/{userId}. The document ID equals
// the Firebase Auth UID. HouseholdID is empty while the user has not yet
// created or joined a household.
type User struct {
	ID           string `json:"id" firestore:"-"`
	Name         string `json:"name,omitempty" firestore:"name,omitempty"`
	HouseholdID  string `json:"householdId,omitempty" firestore:"householdId,omitempty"`
	Role         Role   `json:"role" firestore:"role"`
	ProfileColor string `json:"profileColor,omitempty" firestore:"profileColor,omitempty"`
}

// DecodeUser builds a User from a raw document map.
func DecodeUser(path, id string, data map[string]interface{}) (User, error) {
	if id == "" {
		return User{}, decodeErr(path, id, "empty document id")
	}
	return User{
		ID:           id,
		Name:         optString(data, "name"),
		HouseholdID:  optString(data, "householdId"),
		Role:         Role(optString(data, "role")),
		ProfileColor: optString(data, "profileColor"),
	}, nil
}

// Map returns the document representation written to the store.
func (u User) Map() map[string]interface{} {
	m := map[string]interface{}{
		"role": string(u.Role),
	}
	if u.Name != "" {
		m["name"] = u.Name
	}
	if u.HouseholdID != "" {
		m["householdId"] = u.HouseholdID
	}
	if u.ProfileColor != "" {
		m["profileColor"] = u.ProfileColor
	}
	return m
}
