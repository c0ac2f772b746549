package rules

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/kestrelsec/kestrel/internal/httpmsg"
	"github.com/kestrelsec/kestrel/internal/pscan"
	"github.com/kestrelsec/kestrel/internal/users"
)

// UserDisclosure flags responses whose body contains the name of a user
// authorized under the matched context. Leaking valid account names eases
// credential guessing attacks.
type UserDisclosure struct{}

// NewUserDisclosure creates the user disclosure rule.
func NewUserDisclosure() *UserDisclosure {
	return &UserDisclosure{}
}

// Name returns the stable rule name.
func (r *UserDisclosure) Name() string {
	return "authorized-user-disclosure"
}

// Scan checks the response body against the names of the context's enabled
// users. Unmatched messages have an empty user list and never alert.
func (r *UserDisclosure) Scan(msg *httpmsg.Exchange, data *pscan.ScanData) []pscan.Alert {
	names := lo.Uniq(lo.FilterMap(data.Users(), func(u users.User, _ int) (string, bool) {
		return u.Name, u.Enabled && u.Name != ""
	}))
	if len(names) == 0 {
		return nil
	}

	body := msg.Response.Body

	var alerts []pscan.Alert
	for _, name := range names {
		if !strings.Contains(body, name) {
			continue
		}
		alerts = append(alerts, pscan.Alert{
			Rule:        r.Name(),
			Severity:    pscan.SeverityLow,
			Confidence:  pscan.ConfidenceLow,
			Description: fmt.Sprintf("The response body contains %q, the name of a user authorized for this site.", name),
			Evidence:    name,
			URL:         msg.RequestURL(),
			Context:     contextName(data),
		})
	}

	return alerts
}
