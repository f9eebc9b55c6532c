package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
)

func TestDefault(t *testing.T) {
	SetDefault()

	assert.Equal(t, Session{
		ExternalIDPrefix: "ctim-bundle-builder",
		Source:           "CTIM Bundle Builder",
		SourceURI:        "https://github.com/CiscoSecurity/tr-05-ctim-bundle-builder",
	}, Get())
}

func TestSetValidates(t *testing.T) {
	SetDefault()
	t.Cleanup(SetDefault)

	err := Set("", strings.Repeat("s", 2049), "")

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schema.Messages{
		"external_id_prefix": []string{"Field may not be blank."},
		"source":             []string{"Must be at most 2048 characters long."},
		"source_uri":         []string{"Field may not be blank."},
	}, verr.Messages)
	assert.Equal(t, Default(), Get(), "failed Set leaves the session unchanged")

	require.NoError(t, Set("ctim-tutorial", "Tutorial", "https://example.com"))
	assert.Equal(t, "ctim-tutorial", Get().ExternalIDPrefix)
}

func TestUseRestoresPrevious(t *testing.T) {
	SetDefault()
	t.Cleanup(SetDefault)

	outer := Session{ExternalIDPrefix: "outer", Source: "Outer", SourceURI: "https://outer"}
	inner := Session{ExternalIDPrefix: "inner", Source: "Inner", SourceURI: "https://inner"}

	restoreOuter, err := outer.Use()
	require.NoError(t, err)
	assert.Equal(t, outer, Get())

	restoreInner, err := inner.Use()
	require.NoError(t, err)
	assert.Equal(t, inner, Get())

	restoreInner()
	assert.Equal(t, outer, Get())

	restoreOuter()
	assert.Equal(t, Default(), Get())
}

func TestUseRejectsInvalid(t *testing.T) {
	SetDefault()

	restore, err := Session{ExternalIDPrefix: "x"}.Use()
	assert.Error(t, err)
	assert.Nil(t, restore)
	assert.Equal(t, Default(), Get())
}

func TestFromContext(t *testing.T) {
	SetDefault()

	assert.Equal(t, Default(), FromContext(context.Background()))

	s, err := New("ctx", "Context", "https://ctx")
	require.NoError(t, err)
	ctx, err := WithSession(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, s, FromContext(ctx))
	assert.Equal(t, Default(), Get(), "context sessions do not touch the global")

	_, err = WithSession(context.Background(), Session{})
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	SetDefault()
	t.Cleanup(SetDefault)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = Set("p", "Source", "https://example.com")
			if i%2 == 0 {
				SetDefault()
			}
		}()
		go func() {
			defer wg.Done()
			s := Get()
			assert.NotEmpty(t, s.ExternalIDPrefix)
		}()
	}
	wg.Wait()
}
