package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadFirstStringOrder(t *testing.T) {
	p, err := decodePayload([]byte(`{
		"data": {
			"metadata": {"user_id": null},
			"payload": {"metadata": {"user_id": "from-payload"}},
			"subscription": {"metadata": {"user_id": "from-subscription"}}
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "from-payload", p.FirstString(metadataPaths("user_id")...))
	assert.Equal(t, "", p.FirstString("data.missing", "data.metadata.user_id"))
}

func TestPayloadEmbeddedJSONString(t *testing.T) {
	p, err := decodePayload([]byte(`{"data":{"metadata":"{\"user_id\":\"abc\",\"billing_cycle\":\"yearly\"}"}}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", p.FirstString("data.metadata.user_id"))
	assert.Equal(t, "yearly", p.FirstString("data.metadata.billing_cycle"))
}

func TestPayloadScalars(t *testing.T) {
	p, err := decodePayload([]byte(`{"data":{"id":4099260516,"amount":"2500","flag":true,"when":"2026-11-01T10:00:00Z","day":"2026-12-01"}}`))
	require.NoError(t, err)

	assert.Equal(t, "4099260516", p.FirstString("data.id"))
	assert.Equal(t, "true", p.FirstString("data.flag"))

	n, ok := p.FirstInt64("data.missing", "data.amount")
	assert.True(t, ok)
	assert.Equal(t, int64(2500), n)

	when := p.FirstTime("data.when")
	require.NotNil(t, when)
	assert.Equal(t, time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC), *when)

	day := p.FirstTime("data.day")
	require.NotNil(t, day)
	assert.Equal(t, 12, int(day.Month()))

	assert.Nil(t, p.FirstTime("data.amount"))
}

func TestDecodePayloadRejectsNonObjects(t *testing.T) {
	_, err := decodePayload([]byte(`not json`))
	assert.Error(t, err)
	_, err = decodePayload([]byte(`null`))
	assert.Error(t, err)
	_, err = decodePayload([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestNormalizeCycle(t *testing.T) {
	assert.Equal(t, "yearly", NormalizeCycle("annually"))
	assert.Equal(t, "yearly", NormalizeCycle(" Yearly "))
	assert.Equal(t, "monthly", NormalizeCycle("month"))
	assert.Equal(t, "", NormalizeCycle("weekly"))
}
