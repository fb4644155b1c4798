package models

// Household is the root document at households/{householdId}. Members and
// chores live in subcollections, not embedded, so they can be read and
// subscribed to independently.
type Household struct {
	ID  string `json:"id" firestore:"-"`
	Tag string `json:"tag" firestore:"tag"`
}

// DecodeHousehold builds a Household from a raw document map.
func DecodeHousehold(path, id string, data map[string]interface{}) (Household, error) {
	tag, err := reqString(data, "tag")
	if err != nil {
		return Household{}, decodeErr(path, id, "%v", err)
	}
	return Household{ID: id, Tag: tag}, nil
}

// Map returns the document representation written to the store.
func (h Household) Map() map[string]interface{} {
	return map[string]interface{}{"tag": h.Tag}
}

// HouseholdMember is the denormalized per-household copy of a user's public
// profile, stored at households/{householdId}/users/{userId}. It exists so
// member lists render without cross-household lookups. ExpoToken is the
// member's push token, written through on registration.
type HouseholdMember struct {
	ID           string `json:"id" firestore:"-"`
	Name         string `json:"name" firestore:"name"`
	ProfileColor string `json:"profileColor,omitempty" firestore:"profileColor,omitempty"`
	ExpoToken    string `json:"-" firestore:"expoToken,omitempty"`
}

// DecodeHouseholdMember builds a HouseholdMember from a raw document map.
func DecodeHouseholdMember(path, id string, data map[string]interface{}) (HouseholdMember, error) {
	name, err := reqString(data, "name")
	if err != nil {
		return HouseholdMember{}, decodeErr(path, id, "%v", err)
	}
	return HouseholdMember{
		ID:           id,
		Name:         name,
		ProfileColor: optString(data, "profileColor"),
		ExpoToken:    optString(data, "expoToken"),
	}, nil
}

// Map returns the document representation written to the store.
func (m HouseholdMember) Map() map[string]interface{} {
	out := map[string]interface{}{"name": m.Name}
	if m.ProfileColor != "" {
		out["profileColor"] = m.ProfileColor
	}
	if m.ExpoToken != "" {
		out["expoToken"] = m.ExpoToken
	}
	return out
}
