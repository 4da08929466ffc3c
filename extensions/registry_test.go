package extensions

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mp4", ".mp4"},
		{".MKV", ".mkv"},
		{"  Srt ", ".srt"},
		{"", ""},
		{".", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := New()

	assert.True(t, r.AddPayloadKind("mp4"))
	assert.False(t, r.AddPayloadKind(".MP4"), "adding an existing token must be a no-op")
	assert.False(t, r.AddPayloadKind(""))

	assert.True(t, r.AddCompanionKind("NFO"))
	assert.False(t, r.AddCompanionKind(".nfo"))

	payload, companion := r.ListKinds()
	assert.Equal(t, []string{".mp4"}, payload)
	assert.Equal(t, []string{".nfo"}, companion)
}

func TestRegistry_Membership(t *testing.T) {
	r := NewDefault()

	assert.True(t, r.IsPayloadKind("mkv"))
	assert.True(t, r.IsPayloadKind(".MKV"))
	assert.False(t, r.IsPayloadKind("nfo"))
	assert.True(t, r.IsCompanionKind("srt"))
	assert.False(t, r.IsCompanionKind("mp4"))
}

func TestRegistry_DefaultsAreSorted(t *testing.T) {
	r := NewDefault()
	payload := r.PayloadKinds()

	require.Len(t, payload, len(DefaultPayloadKinds))
	assert.IsIncreasing(t, payload)
	assert.Len(t, r.CompanionKinds(), len(DefaultCompanionKinds))
}

func TestRegistry_WithOverridesDoesNotMutateShared(t *testing.T) {
	shared := NewDefault()

	same := shared.WithOverrides(Overrides{})
	assert.Same(t, shared, same, "empty overrides should reuse the registry")

	scoped := shared.WithOverrides(Overrides{
		PayloadKinds:   []string{"ts"},
		CompanionKinds: []string{"edl"},
	})
	require.NotSame(t, shared, scoped)

	assert.True(t, scoped.IsPayloadKind("ts"))
	assert.True(t, scoped.IsCompanionKind("edl"))
	assert.True(t, scoped.IsPayloadKind("mp4"), "clone keeps the base kinds")

	assert.False(t, shared.IsPayloadKind("ts"))
	assert.False(t, shared.IsCompanionKind("edl"))
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	r := New()
	tokens := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tok := range tokens {
				r.AddPayloadKind(tok)
				r.IsPayloadKind(tok)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.PayloadKinds(), len(tokens))
}
