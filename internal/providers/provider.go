package providers

import (
	"context"
	"net/url"
	"strings"

	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

const bodySampleLimit = 900

// Provider is one upstream vehicle-data source. Lookup never returns an
// error: a failed provider contributes an empty partial record and its
// attempts stay in the trace.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, vrm string, trace *Trace) models.PartialVehicleRecord
}

// Trace collects the upstream attempts made by a single provider during
// one lookup. Each provider gets its own recorder, so no locking is
// needed even when providers run concurrently.
type Trace struct {
	attempts []models.Attempt
}

// Add appends one attempt, masking credentials in the URL and capping
// the body sample.
func (t *Trace) Add(a models.Attempt) {
	if t == nil {
		return
	}
	a.URL = MaskURL(a.URL)
	if len(a.BodySample) > bodySampleLimit {
		a.BodySample = a.BodySample[:bodySampleLimit]
	}
	t.attempts = append(t.attempts, a)
}

// Attempts returns the recorded attempts in call order.
func (t *Trace) Attempts() []models.Attempt {
	if t == nil {
		return nil
	}
	return t.attempts
}

// MaskURL redacts the value of any query parameter whose name contains
// "key" or "token", so API credentials never reach logs or debug output.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for name := range q {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "key") || strings.Contains(lower, "token") {
			q.Set(name, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
