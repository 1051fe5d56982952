package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{
			name:   "path",
			target: Target{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: AddressingPath},
			want:   "http://localhost:3000/@test/fix-package",
		},
		{
			name:   "path default mode",
			target: Target{BaseURL: "http://localhost:3000/", Fixture: "@test/fix-package"},
			want:   "http://localhost:3000/@test/fix-package",
		},
		{
			name:   "path with prefix",
			target: Target{BaseURL: "https://example.test/registry", Fixture: "@org/repo", Addressing: AddressingPath},
			want:   "https://example.test/registry/@org/repo",
		},
		{
			name:   "query",
			target: Target{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: AddressingQuery},
			want:   "http://localhost:3000/?view=repo&package=%40test%2Ffix-package",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.target.URL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetValidate(t *testing.T) {
	bad := []Target{
		{BaseURL: "localhost:3000", Fixture: "@test/fix-package"},
		{BaseURL: "ftp://localhost", Fixture: "@test/fix-package"},
		{BaseURL: "http://", Fixture: "@test/fix-package"},
		{BaseURL: "http://localhost:3000", Fixture: "test/fix-package"},
		{BaseURL: "http://localhost:3000", Fixture: "@test"},
		{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: "hash"},
	}
	for _, target := range bad {
		_, err := target.URL()
		assert.Error(t, err, "%+v", target)
	}
}

func TestParseTargetURLRoundTrip(t *testing.T) {
	for _, target := range []Target{
		{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: AddressingPath},
		{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: AddressingQuery},
		{BaseURL: "http://127.0.0.1:8080/app", Fixture: "@org/repo.js", Addressing: AddressingPath},
	} {
		raw, err := target.URL()
		require.NoError(t, err)
		got, err := ParseTargetURL(raw)
		require.NoError(t, err)
		assert.Equal(t, target, got, raw)
	}
}

func TestParseTargetURLIgnoresTrailingSegments(t *testing.T) {
	got, err := ParseTargetURL("http://localhost:3000/@test/fix-package/settings")
	require.NoError(t, err)
	assert.Equal(t, Target{BaseURL: "http://localhost:3000", Fixture: "@test/fix-package", Addressing: AddressingPath}, got)
}

func TestParseTargetURLInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"/@test/fix-package",
		"http://localhost:3000/",
		"http://localhost:3000/@test",
		"http://localhost:3000/?view=repo",
		"http://localhost:3000/?view=repo&package=not-scoped",
	} {
		_, err := ParseTargetURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseAddressing(t *testing.T) {
	mode, err := ParseAddressing("")
	require.NoError(t, err)
	assert.Equal(t, AddressingPath, mode)

	mode, err = ParseAddressing(" Query ")
	require.NoError(t, err)
	assert.Equal(t, AddressingQuery, mode)

	_, err = ParseAddressing("fragment")
	assert.Error(t, err)
}

func TestTargetLandmark(t *testing.T) {
	assert.Equal(t, "@test/fix-package", Target{Fixture: "@test/fix-package"}.Landmark())
}
