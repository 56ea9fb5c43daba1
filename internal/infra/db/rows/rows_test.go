package rows

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
)

func TestEncodeResults_AbsentIsNull(t *testing.T) {
	vt, ml, err := EncodeResults(&domain.CombinedScanResult{
		ML: &domain.MLResult{Prediction: "phishing", Confidence: 97.5, IsMalicious: true, ScanSuccess: true},
	})
	require.NoError(t, err)
	assert.False(t, vt.Valid)
	assert.True(t, ml.Valid)
	assert.JSONEq(t,
		`{"url":"","scanTime":"","prediction":"phishing","confidence":97.5,"isMalicious":true,"scanSuccess":true}`,
		ml.String)
}

func TestDecodeResults_NullVariants(t *testing.T) {
	for _, in := range []sql.NullString{
		{},
		{String: "", Valid: true},
		{String: "null", Valid: true},
	} {
		rep, ml, err := DecodeResults(in, in)
		require.NoError(t, err)
		assert.Nil(t, rep)
		assert.Nil(t, ml)
	}
}

func TestDecodeResults_Malformed(t *testing.T) {
	_, _, err := DecodeResults(sql.NullString{String: "{", Valid: true}, sql.NullString{})
	assert.Error(t, err)
}
