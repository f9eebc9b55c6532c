package ctim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/identity"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

const (
	tutorialSource    = "CTIM Tutorial"
	tutorialSourceURI = "https://github.com/CiscoSecurity/tr-05-ctim-bundle-builder/blob/master/scripts/tutorial.py"
)

// tutorialContext carries the tutorial session and a sequence generator,
// so transient ids end in 000...1, 000...2 and so on.
func tutorialContext(t *testing.T) context.Context {
	t.Helper()
	s, err := session.New("ctim-tutorial", tutorialSource, tutorialSourceURI)
	require.NoError(t, err)
	ctx, err := session.WithSession(context.Background(), s)
	require.NoError(t, err)
	return identity.WithGenerator(ctx, &identity.SequenceGenerator{})
}

func judgementFields() Fields {
	return Fields{
		"confidence":       "High",
		"disposition":      2,
		"disposition_name": "Malicious",
		"observable":       map[string]any{"type": "ip", "value": "187.75.16.75"},
		"priority":         95,
		"severity":         "High",
		"valid_time": map[string]any{
			"start_time": "2019-03-01T22:26:29.229Z",
			"end_time":   "2019-03-31T22:26:29.229Z",
		},
		"timestamp": "2019-03-01T22:26:29.229Z",
		"tlp":       "green",
	}
}
