// Package ctim builds validated CTIM threat intelligence entities.
//
// Every kind is registered with a schema. Primary kinds (bundle,
// indicator, judgement, relationship, sighting, verdict) stand alone in a
// bundle; secondary kinds (observable, valid_time, ...) only appear inside
// them. Construction validates the whole input at once and, for identified
// primaries, stamps provenance from the session and derives a transient id
// plus deterministic external ids.
//
//	ctx, _ := session.WithSession(ctx, s)
//	j, err := ctim.NewJudgement(ctx, ctim.Fields{...})
//	b, _ := ctim.NewBundle(ctx, nil)
//	err = b.AddJudgement(j, false)
package ctim
