package credentials

import goSession "github.com/MrEthical07/goSession"

// Durable key names shared by every backend.
const (
	KeySessionID = "session_id"
	KeyUserID    = "user_id"
	KeyUserEmail = "user_email"
	KeyUserName  = "user_name"
)

// Keys lists every key a backend writes, in a fixed order.
var Keys = []string{KeySessionID, KeyUserID, KeyUserEmail, KeyUserName}

func toFields(c goSession.Credentials) map[string]string {
	out := map[string]string{
		KeySessionID: c.Token,
		KeyUserID:    c.UserID,
	}
	if c.Display.Email != "" {
		out[KeyUserEmail] = c.Display.Email
	}
	if c.Display.Name != "" {
		out[KeyUserName] = c.Display.Name
	}
	return out
}

// fromFields rebuilds credentials. A missing half of the token/user pair is absent.
func fromFields(fields map[string]string) (goSession.Credentials, bool) {
	c := goSession.Credentials{
		Token:  fields[KeySessionID],
		UserID: fields[KeyUserID],
		Display: goSession.DisplayCache{
			Email: fields[KeyUserEmail],
			Name:  fields[KeyUserName],
		},
	}
	if !c.Present() {
		return goSession.Credentials{}, false
	}
	return c, true
}
