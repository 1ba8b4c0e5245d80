package httpapi

import "encoding/json"

// userValue is the on-disk payload stored under a user's id key. The id
// itself is never duplicated into the value: it's already the index key, so
// storing it again would bloat every record for no benefit.
type userValue struct {
	Name string `json:"name"`
}

// userResponse is the shape of every user-record JSON body this API emits.
type userResponse struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

func encodeUserValue(name string) ([]byte, error) {
	return json.Marshal(userValue{Name: name})
}

func decodeUserValue(b []byte) (userValue, error) {
	var v userValue
	err := json.Unmarshal(b, &v)
	return v, err
}
