package loader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ctim"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/identity"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/ir"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/schema"
	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

func sequenceContext() context.Context {
	return identity.WithGenerator(context.Background(), &identity.SequenceGenerator{})
}

func buildFile(t *testing.T, name string) (*Result, error) {
	t.Helper()
	doc, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return Build(sequenceContext(), doc)
}

func TestBuild_Tutorial(t *testing.T) {
	res, err := buildFile(t, "tutorial.yaml")
	require.NoError(t, err)

	b := res.Bundle
	assert.Equal(t, "transient:ctim-tutorial-bundle-00000000000000000000000000000001", b.ID())
	assert.Equal(t, "CTIM Tutorial", b.Get("source"))
	assert.Equal(t, 1, b.Count("judgements"))
	assert.Equal(t, 1, b.Count("verdicts"))
	assert.Equal(t, 1, b.Count("sightings"))
	assert.Equal(t, 1, b.Count("relationships"))

	require.Len(t, res.Entities, 4)
	j := res.Named["judgement"]
	s := res.Named["sighting"]
	assert.Equal(t, []string{
		"ctim-tutorial-judgement-6b45cbba2078b2c92dd6106875493a9b9c13acf2941d4ad61530aa1bfb45d55c",
	}, j.ExternalIDs())
	assert.Equal(t, j.ID(), res.Named["verdict"].Get("judgement_id"))

	r := res.Named["sighting-to-judgement"]
	assert.Equal(t, s.ID(), r.Get("source_ref"))
	assert.Equal(t, j.ID(), r.Get("target_ref"))
}

func TestBuild_FormatsAgree(t *testing.T) {
	var digests []string
	for _, name := range []string{"tutorial.yaml", "tutorial.json", "tutorial.cue"} {
		res, err := buildFile(t, name)
		require.NoError(t, err, name)
		digests = append(digests, ir.MustDigest(res.Bundle.JSON()))
	}
	assert.Equal(t, digests[0], digests[1], "json")
	assert.Equal(t, digests[0], digests[2], "cue")
}

func TestBuild_CollectsEveryFailure(t *testing.T) {
	_, err := buildFile(t, "broken.yaml")

	var berr *BuildError
	require.ErrorAs(t, err, &berr)

	type failure struct {
		index int
		name  string
		code  string
	}
	var got []failure
	for _, e := range berr.Errors {
		got = append(got, failure{e.Index, e.Name, e.Code})
	}
	assert.Equal(t, []failure{
		{0, "judgement", ErrCodeInvalid},
		{1, "campaign", ErrCodeUnknownKind},
		{2, "verdict", ErrCodeUnresolved},
		{3, "relationship", ErrCodeInvalidAdd},
		{4, "relationship", ErrCodeUnresolved},
	}, got)

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Messages, "confidence")
	assert.Contains(t, err.Error(), "5 entries failed to build")
}

func TestBuild_AddModes(t *testing.T) {
	judgement := func(name string, add AddMode) EntitySpec {
		return EntitySpec{Name: name, Kind: "judgement", Add: add, Fields: map[string]any{
			"confidence":       "High",
			"disposition":      5,
			"disposition_name": "Unknown",
			"observable":       map[string]any{"type": "domain", "value": name + ".example"},
			"priority":         10,
			"severity":         "Low",
			"valid_time":       map[string]any{},
		}}
	}
	doc := &Document{Entities: []EntitySpec{
		judgement("a", ""),
		judgement("b", AddReference),
		judgement("c", AddNone),
		{Name: "obs", Kind: "observable", Fields: map[string]any{"type": "ip", "value": "1.1.1.1"}},
	}}

	res, err := Build(sequenceContext(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Bundle.Count("judgements"))
	assert.Equal(t, []any{res.Named["b"].ID()}, res.Bundle.Get("judgement_refs"))
	assert.Len(t, res.Entities, 4)
	assert.Equal(t, ctim.KindObservable, res.Named["obs"].Kind())
}

func TestBuild_SecondaryCannotJoinBundle(t *testing.T) {
	doc := &Document{Entities: []EntitySpec{
		{Kind: "observable", Add: AddEmbed, Fields: map[string]any{"type": "ip", "value": "1.1.1.1"}},
	}}

	_, err := Build(sequenceContext(), doc)

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schema.Messages{"_schema": []string{"Not a valid CTIM Bundle member."}}, verr.Messages)
}

func TestBuild_RefEmbedsSecondary(t *testing.T) {
	doc := &Document{Entities: []EntitySpec{
		{Name: "ip", Kind: "observable", Fields: map[string]any{"type": "ip", "value": "1.1.1.1"}},
		{Kind: "verdict", Fields: map[string]any{
			"disposition": 1,
			"observable":  map[string]any{RefKey: "ip"},
			"valid_time":  map[string]any{},
		}},
	}}

	res, err := Build(sequenceContext(), doc)
	require.NoError(t, err)

	verdicts := res.Bundle.JSON().Map()["verdicts"].([]any)
	require.Len(t, verdicts, 1)
	assert.Equal(t, map[string]any{"type": "ip", "value": "1.1.1.1"}, verdicts[0].(map[string]any)["observable"])
}

func TestBuild_FieldsMustBeMapping(t *testing.T) {
	doc, err := LoadYAML([]byte(`
entities:
  - name: obs
    kind: observable
    fields: {type: ip, value: 1.2.3.4}
  - kind: observable
    fields: {$ref: obs}
`))
	require.NoError(t, err)

	_, err = Build(sequenceContext(), doc)

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	require.Len(t, berr.Errors, 1)
	assert.Equal(t, 1, berr.Errors[0].Index)
	assert.Equal(t, ErrCodeInvalid, berr.Errors[0].Code)
	assert.Contains(t, berr.Errors[0].Error(), "fields must be a mapping")
}

func TestBuild_DuplicateNamesAndDerivation(t *testing.T) {
	doc := &Document{Entities: []EntitySpec{
		{Name: "x", Kind: "observable", Fields: map[string]any{"type": "ip", "value": "1.1.1.1"}},
		{Name: "x", Kind: "observable", Fields: map[string]any{"type": "ip", "value": "2.2.2.2"}},
		{Kind: "sighting", FromJudgement: "x"},
		{Kind: "verdict", FromJudgement: "x", Fields: map[string]any{"disposition": 1}},
		{Kind: "verdict", FromJudgement: "x"},
		{Kind: "bundle"},
	}}

	_, err := Build(sequenceContext(), doc)

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	codes := make([]string, len(berr.Errors))
	for i, e := range berr.Errors {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{
		ErrCodeDuplicateName, ErrCodeDerivation, ErrCodeDerivation, ErrCodeInvalid, ErrCodeUnknownKind,
	}, codes)
	assert.Contains(t, berr.Errors[3].Error(), "Not a valid CTIM Judgement.")
}

func TestBuild_DocumentSessionMergesWithContext(t *testing.T) {
	s, err := session.New("ctx-prefix", "Context Source", "https://context")
	require.NoError(t, err)
	ctx, err := session.WithSession(sequenceContext(), s)
	require.NoError(t, err)

	res, err := Build(ctx, &Document{Session: &session.Session{Source: "Document Source"}})
	require.NoError(t, err)

	assert.Equal(t, "transient:ctx-prefix-bundle-00000000000000000000000000000001", res.Bundle.ID())
	assert.Equal(t, "Document Source", res.Bundle.Get("source"))
	assert.Equal(t, "https://context", res.Bundle.Get("source_uri"))
}

func TestBuild_InvalidBundleStops(t *testing.T) {
	_, err := Build(sequenceContext(), &Document{
		Bundle:   map[string]any{"tlp": "ultraviolet"},
		Entities: []EntitySpec{{Kind: "campaign"}},
	})

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	require.Len(t, berr.Errors, 1)
	assert.Equal(t, "bundle", berr.Errors[0].Name)
	assert.Equal(t, ErrCodeInvalid, berr.Errors[0].Code)
}

func TestBuild_InvalidDocumentSession(t *testing.T) {
	long := make([]byte, 2049)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Build(sequenceContext(), &Document{Session: &session.Session{Source: string(long)}})

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, ErrCodeSession, berr.Errors[0].Code)
}
