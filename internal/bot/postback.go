package bot

import (
	"fmt"
	"net/url"
	"strconv"
)

// Postback is a parsed postback payload.
type Postback struct {
	// Action is the value of the "action" key in the postback data.
	Action string

	// Index is the value of the "index" key when present.
	// HasIndex reports whether the key appeared at all.
	Index    int
	HasIndex bool

	// Date is the datetime picker result ("YYYY-MM-DD"), taken from the
	// event's postback params rather than the data string. Empty when the
	// user dismissed the picker without choosing.
	Date string
}

// ParsePostback parses a postback data string of the form
// "action=name&key=value". params carries the picker result map from the
// webhook event and may be nil.
func ParsePostback(data string, params map[string]interface{}) (*Postback, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return nil, fmt.Errorf("parse postback %q: %w", data, err)
	}

	action := values.Get("action")
	if action == "" {
		return nil, fmt.Errorf("parse postback %q: missing action", data)
	}

	pb := &Postback{Action: action}

	if raw := values.Get("index"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("parse postback %q: bad index %q", data, raw)
		}
		pb.Index = idx
		pb.HasIndex = true
	}

	if params != nil {
		if d, ok := params["date"].(string); ok {
			pb.Date = d
		}
	}

	return pb, nil
}
