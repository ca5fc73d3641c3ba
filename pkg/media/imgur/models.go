package imgur

import "encoding/json"

// Response is the envelope every Imgur API response is wrapped in. Data is
// kept raw; only the item links are extracted from it.
type Response struct {
	Data    json.RawMessage `json:"data"`
	Success *bool           `json:"success"`
	Status  int             `json:"status"`
}

// apiError is the shape of Data when Success is false
type apiError struct {
	Error   json.RawMessage `json:"error"`
	Request string          `json:"request"`
	Method  string          `json:"method"`
}

// message renders an API error body for humans; the error field is a string
// on most endpoints and an object on a few.
func (e apiError) message() string {
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return ""
}
