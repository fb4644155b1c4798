package models

import "time"

// InviteCode maps a short-lived code at inviteCodes/{code} to a household.
// The code is usable only strictly before ExpirationTime.
type InviteCode struct {
	Code           string    `json:"code" firestore:"-"`
	HouseholdID    string    `json:"householdId" firestore:"householdId"`
	ExpirationTime time.Time `json:"expirationTime" firestore:"expirationTime"`
}

// Expired reports whether the code is no longer usable at the given instant.
func (i InviteCode) Expired(now time.Time) bool {
	return !now.Before(i.ExpirationTime)
}

// DecodeInviteCode builds an InviteCode from a raw document map.
func DecodeInviteCode(path, code string, data map[string]interface{}) (InviteCode, error) {
	householdID, err := reqString(data, "householdId")
	if err != nil {
		return InviteCode{}, decodeErr(path, code, "%v", err)
	}
	expiry, err := reqTime(data, "expirationTime")
	if err != nil {
		return InviteCode{}, decodeErr(path, code, "%v", err)
	}
	return InviteCode{Code: code, HouseholdID: householdID, ExpirationTime: expiry}, nil
}

// Map returns the document representation written to the store.
func (i InviteCode) Map() map[string]interface{} {
	return map[string]interface{}{
		"householdId":    i.HouseholdID,
		"expirationTime": i.ExpirationTime,
	}
}

// Invitation is an email-keyed invite at invitations/{email}. Unlike codes it
// carries no expiry; it is consumed when the invited user joins.
type Invitation struct {
	Email       string `json:"email" firestore:"-"`
	HouseholdID string `json:"householdId" firestore:"householdId"`
}

// DecodeInvitation builds an Invitation from a raw document map.
func DecodeInvitation(path, email string, data map[string]interface{}) (Invitation, error) {
	householdID, err := reqString(data, "householdId")
	if err != nil {
		return Invitation{}, decodeErr(path, email, "%v", err)
	}
	return Invitation{Email: email, HouseholdID: householdID}, nil
}

// Map returns the document representation written to the store.
func (i Invitation) Map() map[string]interface{} {
	return map[string]interface{}{"householdId": i.HouseholdID}
}
